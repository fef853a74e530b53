package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ahrav/go-rubric/internal/application"
	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/testutils"
)

func main() {
	var (
		size       = flag.Int("size", 50, "Number of submissions to generate")
		students   = flag.Int("students", 10, "Number of distinct students")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		rubricPath = flag.String("rubric", "", "YAML rubric definition (defaults to the built-in rubric)")
		outputDir  = flag.String("output", "testdata/submissions", "Output directory")
	)
	flag.Parse()

	def := domain.DefaultRubric()
	if *rubricPath != "" {
		loader, err := application.NewRubricLoader()
		if err != nil {
			log.Fatalf("Failed to create rubric loader: %v", err)
		}
		if def, err = loader.LoadFromFile(*rubricPath); err != nil {
			log.Fatalf("Failed to load rubric: %v", err)
		}
	}

	docs := testutils.GenerateSampleSubmissions(def, testutils.SampleOptions{
		Size:     *size,
		Students: *students,
		Seed:     *seed,
	})

	paths, err := testutils.SaveSubmissionDocuments(docs, *outputDir)
	if err != nil {
		log.Fatalf("Failed to save submissions: %v", err)
	}

	stats := testutils.ComputeSampleStatistics(def, docs)

	fmt.Printf("Generated sample submissions:\n")
	fmt.Printf("- Directory: %s\n", *outputDir)
	fmt.Printf("- Files: %d\n", len(paths))
	fmt.Printf("- Students: %d\n", stats.Students)
	fmt.Printf("- Seed: %d\n", *seed)
	fmt.Printf("- Labels: %v\n", stats.LabelCount)
	fmt.Printf("- Mean total: %.2f of %.2f\n", stats.MeanTotal, stats.TotalMax)
	fmt.Printf("\nSubmit them with: rubricctl submit -file <path>\n")
}
