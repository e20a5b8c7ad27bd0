package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

const fixture = `
categories:
  - name: Logic
    description: Logical reasoning
    color: "#FF0000"
    questions:
      - text: "Which shape completes the sequence?"
        options: ["circle", "square", "triangle"]
        correct_answer: 2
        difficulty: hard
        points: 20
      - text: "All cats are animals. Some animals fly. Do some cats fly?"
        options: ["yes", "no", "cannot say"]
        correct_answer: 2
tests:
  - title: Logic Starter
    category: Logic
    difficulty: easy
    time_limit: 15
    questions:
      - "Which shape completes the sequence?"
`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "seed.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	db := newTestDB(t)
	path := writeFixture(t, fixture)

	if err := LoadFile(db, path, zerolog.Nop()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	var categories []models.Category
	if err := db.Find(&categories).Error; err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "Logic" {
		t.Fatalf("unexpected categories: %+v", categories)
	}

	var questionCount int64
	db.Model(&models.Question{}).Count(&questionCount)
	if questionCount != 2 {
		t.Errorf("expected 2 questions, got %d", questionCount)
	}

	var test models.Test
	if err := db.Preload("Questions").Where("title = ?", "Logic Starter").First(&test).Error; err != nil {
		t.Fatalf("test not created: %v", err)
	}
	if len(test.Questions) != 1 {
		t.Errorf("expected 1 question on test, got %d", len(test.Questions))
	}
	if test.TimeLimit != 15 {
		t.Errorf("expected time limit 15, got %d", test.TimeLimit)
	}
}

func TestLoadFileIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	path := writeFixture(t, fixture)

	for i := 0; i < 2; i++ {
		if err := LoadFile(db, path, zerolog.Nop()); err != nil {
			t.Fatalf("load #%d failed: %v", i+1, err)
		}
	}

	var categoryCount, questionCount, testCount int64
	db.Model(&models.Category{}).Count(&categoryCount)
	db.Model(&models.Question{}).Count(&questionCount)
	db.Model(&models.Test{}).Count(&testCount)

	if categoryCount != 1 || questionCount != 2 || testCount != 1 {
		t.Errorf("reload duplicated rows: categories=%d questions=%d tests=%d",
			categoryCount, questionCount, testCount)
	}
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "correct answer out of range",
			content: `
categories:
  - name: Bad
    questions:
      - text: "q"
        options: ["a", "b"]
        correct_answer: 9
`,
		},
		{
			name: "test references unknown category",
			content: `
categories:
  - name: Logic
tests:
  - title: Orphan
    category: DoesNotExist
`,
		},
		{
			name: "test references unknown question",
			content: `
categories:
  - name: Logic
tests:
  - title: Broken
    category: Logic
    questions: ["no such question"]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			path := writeFixture(t, tt.content)
			if err := LoadFile(db, path, zerolog.Nop()); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
