package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	RawDir    string
	DataDir   string
	OutputDir string
	DBPath    string

	SheetName       string
	DictionaryPath  string
	ExpressionsPath string

	MaxCombinations int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RawDir:    getEnv("RAW_DIR", filepath.Join(cwd, "dataraw")),
		DataDir:   getEnv("DATA_DIR", filepath.Join(cwd, "data")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),

		SheetName:       getEnv("SHEET_NAME", "DatosParte1"),
		DictionaryPath:  getEnv("DICTIONARY_PATH", filepath.Join(cwd, "diccionario.json")),
		ExpressionsPath: getEnv("EXPRESSIONS_PATH", filepath.Join(cwd, "expresiones_regulares.json")),

		MaxCombinations: getEnvInt("MAX_COMBINATIONS", 24),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
