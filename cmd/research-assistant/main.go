// Command research-assistant runs the research assistant HTTP server and a
// small set of one-shot commands against the academic paper sources.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"research-assistant/internal/assistant"
	"research-assistant/internal/config"
	"research-assistant/internal/profile"
	"research-assistant/internal/server"
	"research-assistant/internal/sources"
	"research-assistant/internal/store"
)

var (
	cfgPath string
	logger  = logrus.New()
)

func main() {
	root := &cobra.Command{
		Use:          "research-assistant",
		Short:        "Search, analyze, and discuss academic research papers",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to the YAML config file")

	root.AddCommand(serveCmd(), searchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.Database.Path, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			llm, err := buildLLM(cfg)
			if err != nil {
				return err
			}

			analyzer, err := assistant.NewAnalyzer(llm, st, logger)
			if err != nil {
				return err
			}

			profiles, err := profile.NewManager(st, logger)
			if err != nil {
				return err
			}

			srv, err := server.New(server.Options{
				Aggregator:     buildAggregator(cfg),
				Analyzer:       analyzer,
				ChatBot:        assistant.NewChatBot(llm, logger),
				Profiles:       profiles,
				Store:          st,
				Logger:         logger,
				RequestTimeout: cfg.Server.RequestTimeout,
				TokenTTL:       cfg.Auth.TokenTTL,
			})
			if err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:    cfg.Server.Addr,
				Handler: srv.Routes(),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.WithField("addr", cfg.Server.Addr).Info("server listening")
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				logger.WithField("signal", sig.String()).Info("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(ctx)
		},
	}
}

func searchCmd() *cobra.Command {
	var (
		source     string
		yearFrom   int
		yearTo     int
		sortBy     string
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a one-shot paper search and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			agg := buildAggregator(cfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Sources.RequestTimeout)
			defer cancel()

			papers, err := agg.Search(ctx, sources.Query{
				Text:       strings.Join(args, " "),
				Source:     source,
				YearFrom:   yearFrom,
				YearTo:     yearTo,
				SortBy:     sortBy,
				MaxResults: maxResults,
			})
			if err != nil {
				return err
			}

			for i, p := range papers {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s (%d) [%s]\n", i+1, p.Title, p.Year, p.Source)
				if len(p.Authors) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", strings.Join(p.Authors, ", "))
				}
				if p.URL != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", p.URL)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d papers\n", len(papers))
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "restrict to one source (semantic_scholar, arxiv, pubmed)")
	cmd.Flags().IntVar(&yearFrom, "year-from", 0, "earliest publication year")
	cmd.Flags().IntVar(&yearTo, "year-to", 0, "latest publication year")
	cmd.Flags().StringVar(&sortBy, "sort", sources.SortRelevance, "sort order: relevance, date, citation_count")
	cmd.Flags().IntVar(&maxResults, "max-results", 20, "maximum number of results")

	return cmd
}

// buildLLM returns nil when no provider is configured; analysis and chat
// then fall back to their template replies.
func buildLLM(cfg *config.Config) (assistant.LLMClient, error) {
	if cfg.LLM.Provider == "" {
		logger.Info("no llm provider configured, using template analysis")
		return nil, nil
	}
	return assistant.NewOpenAILLM(&assistant.LLMSettings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.LLM.Timeout,
	})
}

func buildAggregator(cfg *config.Config) *sources.Aggregator {
	client := &http.Client{Timeout: cfg.Sources.RequestTimeout}

	var enabled []sources.Source
	if cfg.Sources.SemanticScholar.Enabled {
		enabled = append(enabled, sources.NewSemanticScholar(client, cfg.Sources.SemanticScholar.BaseURL, cfg.Sources.SemanticScholar.APIKey))
	}
	if cfg.Sources.Arxiv.Enabled {
		enabled = append(enabled, sources.NewArxiv(client, cfg.Sources.Arxiv.BaseURL))
	}
	if cfg.Sources.PubMed.Enabled {
		enabled = append(enabled, sources.NewPubMed(client, cfg.Sources.PubMed.BaseURL, cfg.Sources.PubMed.APIKey))
	}

	var cache *sources.Cache
	if cfg.Sources.CacheSize > 0 {
		cache = sources.NewCache(cfg.Sources.CacheSize, cfg.Sources.CacheTTL)
	}

	return sources.NewAggregator(enabled, cache, logger)
}
