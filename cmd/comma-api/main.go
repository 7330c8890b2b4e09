package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	httpadapter "github.com/commaworks/comma/internal/adapters/http"
	"github.com/commaworks/comma/internal/adapters/llm"
	"github.com/commaworks/comma/internal/adapters/storage/jsonfile"
	memstore "github.com/commaworks/comma/internal/adapters/storage/memory"
	"github.com/commaworks/comma/internal/app/conversation"
	"github.com/commaworks/comma/internal/app/garden"
	"github.com/commaworks/comma/internal/app/relation"
	"github.com/commaworks/comma/internal/config"
	"github.com/commaworks/comma/internal/domain"
	"github.com/commaworks/comma/internal/persona"
)

func main() {
	ctx := context.Background()

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()
	cfg := config.Load()

	var (
		llmClient domain.LLMClient
		err       error
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using mock LLM client")
		llmClient = llm.NewMockLLM()
	} else {
		log.Printf("[LLM] Using Gemini client (model=%s)", cfg.ModelName)
		llmClient, err = llm.NewGeminiClient(ctx, cfg.GoogleAPIKey, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
	}

	var store domain.Store
	switch cfg.StorageBackend {
	case "memory":
		log.Println("[STORE] Using in-memory storage")
		store = memstore.NewStore()
	default:
		log.Printf("[STORE] Using JSON file storage (%s)", cfg.DBFile)
		store = jsonfile.New(cfg.DBFile)
	}

	catalog := persona.Default()

	convSvc := conversation.NewService(llmClient, store, catalog, cfg.ReplyTimeout)
	relSvc := relation.NewService(llmClient, nil)
	gardenSvc := garden.NewService(store)

	handler := httpadapter.NewServer(convSvc, relSvc, gardenSvc, catalog)

	addr := ":" + cfg.Port
	log.Println("Comma API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
