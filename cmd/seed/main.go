package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"booklib/internal/record"
	"booklib/internal/source"

	"github.com/spf13/cobra"
)

func main() {
	if err := newSeedCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	var (
		out       string
		count     int
		users     int
		seed      int64
		sampleOut bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a dataset file for the mock API or the static snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc map[string][]record.Record
			if sampleOut {
				if err := json.Unmarshal(source.SampleDataset(), &doc); err != nil {
					return fmt.Errorf("read sample dataset: %w", err)
				}
			} else {
				doc = generate(rand.New(rand.NewSource(seed)), count, users)
			}

			if err := writeDataset(out, doc); err != nil {
				return err
			}
			log.Printf("wrote %d books and %d users to %s", len(doc["books"]), len(doc["users"]), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "db.json", "output file")
	cmd.Flags().IntVarP(&count, "count", "n", 50, "number of books to generate")
	cmd.Flags().IntVar(&users, "users", 5, "number of users to generate")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&sampleOut, "sample", false, "write the built-in sample dataset instead of generated data")
	return cmd
}

func generate(rng *rand.Rand, books, users int) map[string][]record.Record {
	doc := map[string][]record.Record{
		"books": make([]record.Record, 0, books),
		"cart":  {},
		"users": make([]record.Record, 0, users),
	}

	for i := 0; i < books; i++ {
		b := record.Book{
			Title:            fmt.Sprintf("%s of %s", randomWord(rng), randomWord(rng)),
			Authors:          []string{randomName(rng)},
			ThumbnailURL:     fmt.Sprintf("https://covers.example.com/%d.jpg", i+1),
			ShortDescription: fmt.Sprintf("A book about %s.", strings.ToLower(randomWord(rng))),
			LongDescription: fmt.Sprintf("This is a book about %s. It explores the fundamental concepts and provides insights into the subject matter.",
				strings.ToLower(randomWord(rng))),
		}
		if rng.Intn(4) == 0 {
			b.Authors = append(b.Authors, randomName(rng))
		}
		r := b.Record()
		r["id"] = i + 1
		doc["books"] = append(doc["books"], r)
	}

	for i := 0; i < users; i++ {
		first, last := firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))]
		u := record.User{
			FirstName: first,
			LastName:  last,
			Email:     fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i+1),
			Phone:     fmt.Sprintf("+1 555 %04d", rng.Intn(10000)),
			Address:   fmt.Sprintf("%d %s Street", 1+rng.Intn(999), randomWord(rng)),
		}
		r := u.Record()
		r["id"] = i + 1
		doc["users"] = append(doc["users"], r)
	}
	return doc
}

func writeDataset(path string, doc map[string][]record.Record) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Ken", "Margaret", "Donald"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Thompson", "Hamilton", "Knuth"}
)

func randomName(rng *rand.Rand) string {
	return firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
}

func randomWord(rng *rand.Rand) string {
	words := []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	return words[rng.Intn(len(words))]
}
