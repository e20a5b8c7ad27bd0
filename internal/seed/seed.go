// Package seed loads catalog fixtures (categories, questions, tests) from a
// YAML file into the database. Loading is idempotent: rows are matched by
// category name, question text, and test title, so restarting the server with
// the same seed file does not duplicate data.
package seed

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/iqtestim/iqadmin/internal/models"
)

// File is the top-level structure of a seed file
type File struct {
	Categories []CategoryFixture `yaml:"categories"`
	Tests      []TestFixture     `yaml:"tests"`
}

// CategoryFixture is one category with its questions
type CategoryFixture struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Color       string            `yaml:"color"`
	Icon        string            `yaml:"icon"`
	SortOrder   int               `yaml:"sort_order"`
	Questions   []QuestionFixture `yaml:"questions"`
}

// QuestionFixture is one multiple-choice question
type QuestionFixture struct {
	Text          string   `yaml:"text"`
	Options       []string `yaml:"options"`
	CorrectAnswer int      `yaml:"correct_answer"`
	Explanation   string   `yaml:"explanation"`
	Difficulty    string   `yaml:"difficulty"`
	Points        int      `yaml:"points"`
	TimeLimit     int      `yaml:"time_limit"`
}

// TestFixture assembles questions (referenced by text) into a test
type TestFixture struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Difficulty  string   `yaml:"difficulty"`
	TimeLimit   int      `yaml:"time_limit"`
	Questions   []string `yaml:"questions"`
}

// LoadFile reads and applies a seed file
func LoadFile(db *gorm.DB, path string, zlog zerolog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	if err := validate(&file); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var created int

		for _, categoryFixture := range file.Categories {
			category, madeCategory, err := upsertCategory(tx, categoryFixture)
			if err != nil {
				return err
			}
			if madeCategory {
				created++
			}

			for _, questionFixture := range categoryFixture.Questions {
				made, err := upsertQuestion(tx, category.ID, questionFixture)
				if err != nil {
					return err
				}
				if made {
					created++
				}
			}
		}

		for _, testFixture := range file.Tests {
			made, err := upsertTest(tx, testFixture)
			if err != nil {
				return err
			}
			if made {
				created++
			}
		}

		zlog.Info().
			Str("path", path).
			Int("created", created).
			Msg("Seed fixtures loaded")
		return nil
	})
}

func validate(file *File) error {
	names := make(map[string]bool, len(file.Categories))
	questionTexts := make(map[string]bool)

	for _, category := range file.Categories {
		if category.Name == "" {
			return fmt.Errorf("seed category with empty name")
		}
		if names[category.Name] {
			return fmt.Errorf("duplicate seed category %q", category.Name)
		}
		names[category.Name] = true

		for _, question := range category.Questions {
			if question.Text == "" {
				return fmt.Errorf("seed question with empty text in category %q", category.Name)
			}
			if len(question.Options) < 2 {
				return fmt.Errorf("seed question %q needs at least 2 options", question.Text)
			}
			if question.CorrectAnswer < 0 || question.CorrectAnswer >= len(question.Options) {
				return fmt.Errorf("seed question %q has correct_answer out of range", question.Text)
			}
			questionTexts[question.Text] = true
		}
	}

	for _, test := range file.Tests {
		if test.Title == "" {
			return fmt.Errorf("seed test with empty title")
		}
		if !names[test.Category] {
			return fmt.Errorf("seed test %q references unknown category %q", test.Title, test.Category)
		}
		for _, questionText := range test.Questions {
			if !questionTexts[questionText] {
				return fmt.Errorf("seed test %q references unknown question %q", test.Title, questionText)
			}
		}
	}

	return nil
}

func upsertCategory(tx *gorm.DB, fixture CategoryFixture) (*models.Category, bool, error) {
	var category models.Category
	err := tx.Where("name = ?", fixture.Name).First(&category).Error
	if err == nil {
		return &category, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, fmt.Errorf("failed to look up category %q: %w", fixture.Name, err)
	}

	category = models.Category{
		Name:        fixture.Name,
		Description: fixture.Description,
		Color:       "#3B82F6",
		Icon:        fixture.Icon,
		IsActive:    true,
		SortOrder:   fixture.SortOrder,
	}
	if fixture.Color != "" {
		category.Color = fixture.Color
	}
	if err := tx.Create(&category).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create category %q: %w", fixture.Name, err)
	}
	return &category, true, nil
}

func upsertQuestion(tx *gorm.DB, categoryID string, fixture QuestionFixture) (bool, error) {
	var count int64
	if err := tx.Model(&models.Question{}).
		Where("text = ? AND category_id = ?", fixture.Text, categoryID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up question %q: %w", fixture.Text, err)
	}
	if count > 0 {
		return false, nil
	}

	question := models.Question{
		Text:          fixture.Text,
		Options:       fixture.Options,
		CorrectAnswer: fixture.CorrectAnswer,
		Explanation:   fixture.Explanation,
		Difficulty:    "medium",
		CategoryID:    categoryID,
		Points:        10,
		TimeLimit:     60,
	}
	if fixture.Difficulty != "" {
		question.Difficulty = fixture.Difficulty
	}
	if fixture.Points > 0 {
		question.Points = fixture.Points
	}
	if fixture.TimeLimit > 0 {
		question.TimeLimit = fixture.TimeLimit
	}

	if err := tx.Create(&question).Error; err != nil {
		return false, fmt.Errorf("failed to create question %q: %w", fixture.Text, err)
	}
	return true, nil
}

func upsertTest(tx *gorm.DB, fixture TestFixture) (bool, error) {
	var count int64
	if err := tx.Model(&models.Test{}).
		Where("title = ?", fixture.Title).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up test %q: %w", fixture.Title, err)
	}
	if count > 0 {
		return false, nil
	}

	var category models.Category
	if err := tx.Where("name = ?", fixture.Category).First(&category).Error; err != nil {
		return false, fmt.Errorf("failed to resolve category %q: %w", fixture.Category, err)
	}

	var questions []models.Question
	if len(fixture.Questions) > 0 {
		if err := tx.Where("text IN ?", fixture.Questions).Find(&questions).Error; err != nil {
			return false, fmt.Errorf("failed to resolve questions for test %q: %w", fixture.Title, err)
		}
	}

	test := models.Test{
		Title:       fixture.Title,
		Description: fixture.Description,
		CategoryID:  category.ID,
		Difficulty:  "medium",
		TimeLimit:   30,
		IsActive:    true,
		IsNew:       true,
		Questions:   questions,
	}
	if fixture.Difficulty != "" {
		test.Difficulty = fixture.Difficulty
	}
	if fixture.TimeLimit > 0 {
		test.TimeLimit = fixture.TimeLimit
	}

	if err := tx.Create(&test).Error; err != nil {
		return false, fmt.Errorf("failed to create test %q: %w", fixture.Title, err)
	}
	return true, nil
}
