// Command seed-data loads catalog and review fixtures from CSV files into
// the database. Files follow the layout of the project's sample data set:
// category.csv, genre.csv, users.csv, titles.csv, genre_title.csv,
// review.csv and comments.csv; missing files are skipped.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"
)

func main() {
	dataDir := flag.String("data", "./data", "directory with CSV fixture files")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("could not load config", "error", err)
		os.Exit(1)
	}

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}

	imp := &importer{dir: *dataDir, logger: logger}
	if err := db.Transaction(imp.run); err != nil {
		logger.Error("seed import failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed import completed")
}

type importer struct {
	dir    string
	logger *slog.Logger

	// CSV rows reference each other by the fixture's numeric ids; the live
	// schema uses uuids for users and autoincrement ids for the rest, so
	// each step records the mapping for the steps after it. Only title ids
	// are carried over verbatim.
	userIDs     map[string]string
	categoryIDs map[string]int64
	genreIDs    map[string]int64
	reviewIDs   map[string]int64
}

// run imports every fixture file inside one transaction, referenced tables
// first. A second run is a no-op for rows that already exist.
func (imp *importer) run(tx *gorm.DB) error {
	imp.userIDs = make(map[string]string)
	imp.categoryIDs = make(map[string]int64)
	imp.genreIDs = make(map[string]int64)
	imp.reviewIDs = make(map[string]int64)

	steps := []struct {
		file string
		fn   func(*gorm.DB, [][]string) (int, error)
	}{
		{"category.csv", imp.importCategories},
		{"genre.csv", imp.importGenres},
		{"users.csv", imp.importUsers},
		{"titles.csv", imp.importTitles},
		{"genre_title.csv", imp.importTitleGenres},
		{"review.csv", imp.importReviews},
		{"comments.csv", imp.importComments},
	}

	for _, step := range steps {
		rows, err := readCSV(filepath.Join(imp.dir, step.file))
		if err != nil {
			if os.IsNotExist(err) {
				imp.logger.Warn("fixture file missing, skipping", "file", step.file)
				continue
			}
			return fmt.Errorf("read %s: %w", step.file, err)
		}
		count, err := step.fn(tx, rows)
		if err != nil {
			return fmt.Errorf("import %s: %w", step.file, err)
		}
		imp.logger.Info("imported fixture", "file", step.file, "rows", count)
	}
	return nil
}

// readCSV returns the data rows of a file, header stripped.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

// category.csv: id,name,slug
func (imp *importer) importCategories(tx *gorm.DB, rows [][]string) (int, error) {
	count := 0
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		c := models.Category{Name: row[1], Slug: row[2]}
		// RETURNING hands back the existing id on the update path.
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&c).Error
		if err != nil {
			return count, err
		}
		imp.categoryIDs[row[0]] = c.ID
		count++
	}
	return count, nil
}

// genre.csv: id,name,slug
func (imp *importer) importGenres(tx *gorm.DB, rows [][]string) (int, error) {
	count := 0
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		g := models.Genre{Name: row[1], Slug: row[2]}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&g).Error
		if err != nil {
			return count, err
		}
		imp.genreIDs[row[0]] = g.ID
		count++
	}
	return count, nil
}

// users.csv: id,username,email,role,bio,first_name,last_name
func (imp *importer) importUsers(tx *gorm.DB, rows [][]string) (int, error) {
	count := 0
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		user := models.User{
			Username:  row[1],
			Email:     row[2],
			Role:      row[3],
			Bio:       row[4],
			FirstName: row[5],
			LastName:  row[6],
		}
		if err := tx.Where("username = ?", user.Username).FirstOrCreate(&user).Error; err != nil {
			return count, err
		}
		imp.userIDs[row[0]] = user.ID
		count++
	}
	return count, nil
}

// titles.csv: id,name,year,category
func (imp *importer) importTitles(tx *gorm.DB, rows [][]string) (int, error) {
	count := 0
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		year, err := strconv.Atoi(row[2])
		if err != nil {
			return count, fmt.Errorf("title %s: bad year %q", row[0], row[2])
		}
		title := models.Title{Name: row[1], Year: year}
		if categoryID, ok := imp.categoryIDs[row[3]]; ok {
			title.CategoryID = &categoryID
		} else if row[3] != "" {
			imp.logger.Warn("title references unknown category, skipping field", "title", row[0], "category", row[3])
		}
		if id, err := strconv.ParseInt(row[0], 10, 64); err == nil {
			title.ID = id
		}
		err = tx.Omit("Genres").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "year", "category_id"}),
		}).Create(&title).Error
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// genre_title.csv: id,title_id,genre_id
func (imp *importer) importTitleGenres(tx *gorm.DB, rows [][]string) (int, error) {
	count := 0
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		genreID, ok := imp.genreIDs[row[2]]
		if !ok {
			imp.logger.Warn("link references unknown genre, skipping", "title", row[1], "genre", row[2])
			continue
		}
		err := tx.Exec(
			"INSERT INTO title_genres (title_id, genre_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			row[1], genreID,
		).Error
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// review.csv: id,title_id,text,author,score,pub_date
func (imp *importer) importReviews(tx *gorm.DB, rows [][]string) (int, error) {
	count := 0
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		authorID, ok := imp.userIDs[row[3]]
		if !ok {
			imp.logger.Warn("review references unknown user, skipping", "review", row[0], "user", row[3])
			continue
		}
		titleID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return count, fmt.Errorf("review %s: bad title id %q", row[0], row[1])
		}
		score, err := strconv.Atoi(row[4])
		if err != nil {
			return count, fmt.Errorf("review %s: bad score %q", row[0], row[4])
		}
		review := models.Review{
			TitleID:  titleID,
			AuthorID: authorID,
			Text:     row[2],
			Score:    score,
			PubDate:  parseFixtureTime(row[5]),
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "title_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).Create(&review).Error
		if err != nil {
			return count, err
		}
		if review.ID == 0 {
			// Duplicate pair skipped by the conflict clause; fetch the
			// existing id so comments can still attach.
			var existing models.Review
			if err := tx.Where("title_id = ? AND author_id = ?", titleID, authorID).First(&existing).Error; err != nil {
				return count, err
			}
			review.ID = existing.ID
		}
		imp.reviewIDs[row[0]] = review.ID
		count++
	}
	return count, nil
}

// comments.csv: id,review_id,text,author,pub_date
func (imp *importer) importComments(tx *gorm.DB, rows [][]string) (int, error) {
	count := 0
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		authorID, ok := imp.userIDs[row[3]]
		if !ok {
			imp.logger.Warn("comment references unknown user, skipping", "comment", row[0], "user", row[3])
			continue
		}
		reviewID, ok := imp.reviewIDs[row[1]]
		if !ok {
			imp.logger.Warn("comment references unknown review, skipping", "comment", row[0], "review", row[1])
			continue
		}
		comment := models.Comment{
			ReviewID: reviewID,
			AuthorID: authorID,
			Text:     row[2],
			PubDate:  parseFixtureTime(row[4]),
		}
		if err := tx.Create(&comment).Error; err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func parseFixtureTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Now()
}
