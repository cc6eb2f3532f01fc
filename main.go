package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"

	"mock-interview/internal/cli"
)

func main() {
	// Загружаем переменные окружения, .env не обязателен
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("ошибка загрузки .env файла", "error", err)
		}
	}

	cli.Execute()
}
