package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/medrec/hpquestion/application/usecase/hp_question"
	"github.com/medrec/hpquestion/infrastructure/adapter/postgres"
	"github.com/medrec/hpquestion/infrastructure/seed"
	"github.com/medrec/hpquestion/infrastructure/service/audit"
	"github.com/medrec/hpquestion/infrastructure/service/logger"
)

func main() {
	withQuestions := flag.Bool("questions", true, "also create the sample questions")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()
	log := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       getenvDefault("LOG_LEVEL", "info"),
		Format:      "text",
		ServiceName: "hp-question-seed",
	})

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Error(ctx, "DATABASE_URL environment variable is required", nil, nil)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Error(ctx, "Failed to connect db", err, nil)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Error(ctx, "Failed to ping db", err, nil)
		os.Exit(1)
	}

	if err := seed.UpsertPostgres(ctx, db); err != nil {
		log.Error(ctx, "Failed to seed lookup tables", err, nil)
		os.Exit(1)
	}
	log.Info(ctx, "Seeded lookup tables", map[string]interface{}{
		"groups":              len(seed.Groups),
		"question_types":      len(seed.QuestionTypes),
		"input_types":         len(seed.InputTypes),
		"investigation_types": len(seed.InvestigationTypes),
	})

	if !*withQuestions {
		return
	}

	questionRepo := postgres.NewHPQuestionRepository(db, 5*time.Second)
	auditRepo := postgres.NewAuditRepository(db, 5*time.Second)
	uc := hp_question.NewHPQuestionUseCase(questionRepo, auditRepo, audit.NewWriter(auditRepo, nil, log), nil, log, 1)

	created, err := seed.Questions(ctx, uc, getenvDefault("SEED_ACTOR", "seed"))
	if err != nil {
		log.Error(ctx, "Failed to seed questions", err, map[string]interface{}{"created": len(created)})
		os.Exit(1)
	}
	log.Info(ctx, "Seeded sample questions", map[string]interface{}{"created": len(created)})
}

func getenvDefault(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
