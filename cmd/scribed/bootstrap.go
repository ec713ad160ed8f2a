package main

import (
	"fmt"
	"log/slog"

	"scribe/internal/config"
	"scribe/internal/language"
	"scribe/internal/queue"
	"scribe/internal/segment"
	"scribe/internal/services/llm"
	"scribe/internal/services/whisper"
	"scribe/internal/storage"
	"scribe/internal/transcribe"
	"scribe/internal/workflow"
)

func buildStages(cfg *config.Config, store *queue.Store, logger *slog.Logger) (workflow.StageSet, error) {
	artifacts, err := storage.NewLocalStore(cfg.Paths.OutputDir)
	if err != nil {
		return workflow.StageSet{}, err
	}

	langCode, err := language.Normalize(cfg.Transcription.Language)
	if err != nil {
		return workflow.StageSet{}, fmt.Errorf("resolve transcription language: %w", err)
	}
	whisperClient := whisper.NewClient(whisper.Config{
		APIKey:         cfg.Transcription.APIKey,
		BaseURL:        cfg.Transcription.BaseURL,
		Model:          cfg.Transcription.Model,
		Language:       langCode,
		TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
	})
	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.Segmentation.APIKey,
		BaseURL:        cfg.Segmentation.BaseURL,
		Model:          cfg.Segmentation.Model,
		TimeoutSeconds: cfg.Segmentation.TimeoutSeconds,
	})

	return workflow.StageSet{
		Transcriber: transcribe.NewTranscriber(cfg, store, whisperClient, logger),
		Segmenter:   segment.NewSegmenter(cfg, store, llmClient, artifacts, logger),
	}, nil
}
