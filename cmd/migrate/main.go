package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"goescrow/config"
	"goescrow/internal/pkg/database"
	"goescrow/internal/pkg/logger"
)

// Comandos do goose aceitos pelo runner. create e fix geram arquivos e ficam de fora.
var allowedCommands = map[string]bool{
	"up": true, "up-by-one": true, "up-to": true,
	"down": true, "down-to": true, "redo": true, "reset": true,
	"status": true, "version": true, "validate": true,
}

// gooseLogger encaminha o log do goose para o logger da aplicação.
type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
}

// parseCommand separa o comando do goose dos seus argumentos; sem comando, roda up.
func parseCommand(arguments []string) (string, []string, error) {
	if len(arguments) == 0 {
		return "up", nil, nil
	}
	command := arguments[0]
	if !allowedCommands[command] {
		return "", nil, fmt.Errorf("comando de migration desconhecido: %q", command)
	}
	return command, arguments[1:], nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "aviso: arquivo .env não encontrado, usando apenas o ambiente do sistema: %v\n", err)
	}

	var (
		migrationsDir string
		timeout       time.Duration
	)
	flag.StringVar(&migrationsDir, "dir", "./sql", "diretório com as migrations")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "tempo máximo para aplicar as migrations")
	flag.Parse()

	log := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	goose.SetLogger(gooseLogger{log: log})

	command, args, err := parseCommand(flag.Args())
	if err != nil {
		log.Fatal("Comando inválido.", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := run(ctx, command, migrationsDir, args); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Migrations excederam o tempo limite.", err)
		}
		log.Fatal(fmt.Sprintf("goose %s falhou.", command), err)
	}

	log.Info("Migrations concluídas.", map[string]interface{}{"command": command, "dir": migrationsDir})
}

func run(ctx context.Context, command, dir string, args []string) error {
	db, err := database.NewPostgresDB(ctx, config.LoadDatabaseURL(), database.DefaultPoolConfig())
	if err != nil {
		return fmt.Errorf("falha ao conectar ao DB: %w", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.RunContext(ctx, command, db, dir, args...)
}
