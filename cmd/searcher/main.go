// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/medsearch"
	"github.com/poiesic/medsearch/config"
	"github.com/poiesic/medsearch/search"
)

const (
	dbPath        = "./medsearch_db"
	thesaurusPath = "./thesaurus.json"
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	cfg := config.DefaultConfig()
	cfg.ThesaurusPath = thesaurusPath

	kb, err := medsearch.Open(dbPath, medsearch.WithConfig(cfg))
	if err != nil {
		panic(err)
	}
	defer kb.Close()

	ctx := context.Background()
	searcher, err := kb.NewSearcher(ctx)
	if err != nil {
		panic(err)
	}

	// Each argument is one symptom; together they also form the query text.
	symptoms := []string{"fièvre", "toux"}
	if len(os.Args) > 1 {
		symptoms = os.Args[1:]
	}
	results, err := searcher.HybridSearch(ctx, search.HybridQuery{
		Text:     strings.Join(symptoms, " "),
		Symptoms: symptoms,
	}, 5)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		d, _ := searcher.Disease(hit.DiseaseID)
		fmt.Printf("%d: '%s' (%s)[%0.3f] %v\n", i, d.Name, hit.DiseaseID, hit.FinalScore, hit.MatchedTerms)
	}
}
