package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"content-catalog-server/models"
	"content-catalog-server/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Loads seed CSVs into the catalog in dependency order. Rows are upserted by
// id so the importer can be re-run; rows whose parent record is missing are
// skipped with a warning.
func main() {
	dataDir := flag.String("data", "./data", "directory containing the seed CSV files")
	flag.Parse()

	db := storage.InitializeDB()

	importCategories(db, filepath.Join(*dataDir, "category.csv"))
	importGenres(db, filepath.Join(*dataDir, "genre.csv"))
	importUsers(db, filepath.Join(*dataDir, "users.csv"))
	importTitles(db, filepath.Join(*dataDir, "titles.csv"))
	importTitleGenres(db, filepath.Join(*dataDir, "genre_title.csv"))
	importReviews(db, filepath.Join(*dataDir, "review.csv"))
	importComments(db, filepath.Join(*dataDir, "comments.csv"))

	fmt.Println("CSV import completed")
}

// readRows returns each data row as a header-keyed map.
func readRows(path string) []map[string]string {
	file, err := os.Open(path)
	if err != nil {
		log.Printf("skipping %s: %v", path, err)
		return nil
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		log.Printf("skipping %s: %v", path, err)
		return nil
	}
	if len(records) < 2 {
		return nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, key := range header {
			if i < len(record) {
				row[key] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func atoui(s string) uint {
	n, _ := strconv.ParseUint(s, 10, 32)
	return uint(n)
}

func upsert(db *gorm.DB, value interface{}, table string) {
	if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error; err != nil {
		log.Printf("error importing into %s: %v", table, err)
	}
}

func importCategories(db *gorm.DB, path string) {
	for _, row := range readRows(path) {
		category := models.Category{ID: atoui(row["id"]), Name: row["name"], Slug: row["slug"]}
		upsert(db, &category, "categories")
	}
}

func importGenres(db *gorm.DB, path string) {
	for _, row := range readRows(path) {
		genre := models.Genre{ID: atoui(row["id"]), Name: row["name"], Slug: row["slug"]}
		upsert(db, &genre, "genres")
	}
}

func importUsers(db *gorm.DB, path string) {
	for _, row := range readRows(path) {
		role := row["role"]
		if role == "" {
			role = models.UserRoleName
		}
		user := models.User{
			ID:        atoui(row["id"]),
			Username:  row["username"],
			Email:     row["email"],
			Role:      role,
			Bio:       row["bio"],
			FirstName: row["first_name"],
			LastName:  row["last_name"],
		}
		upsert(db, &user, "users")
	}
}

func importTitles(db *gorm.DB, path string) {
	for _, row := range readRows(path) {
		year, _ := strconv.Atoi(row["year"])
		title := models.Title{
			ID:          atoui(row["id"]),
			Name:        row["name"],
			Year:        year,
			Description: row["description"],
		}

		if row["category"] != "" {
			var category models.Category
			if err := db.First(&category, atoui(row["category"])).Error; err != nil {
				log.Printf("title %s: unknown category %s, skipped", row["id"], row["category"])
				continue
			}
			title.CategoryID = &category.ID
		}

		upsert(db, &title, "titles")
	}
}

func importTitleGenres(db *gorm.DB, path string) {
	for _, row := range readRows(path) {
		err := db.Exec(
			"INSERT INTO title_genres (title_id, genre_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			atoui(row["title_id"]), atoui(row["genre_id"]),
		).Error
		if err != nil {
			log.Printf("error importing into title_genres: %v", err)
		}
	}
}

func importReviews(db *gorm.DB, path string) {
	for _, row := range readRows(path) {
		score, _ := strconv.Atoi(row["score"])
		review := models.Review{
			ID:       atoui(row["id"]),
			TitleID:  atoui(row["title_id"]),
			AuthorID: atoui(row["author"]),
			Text:     row["text"],
			Score:    score,
		}
		if pubDate, err := time.Parse(time.RFC3339, row["pub_date"]); err == nil {
			review.CreatedAt = pubDate
		}
		upsert(db, &review, "reviews")
	}
}

func importComments(db *gorm.DB, path string) {
	for _, row := range readRows(path) {
		comment := models.Comment{
			ID:       atoui(row["id"]),
			ReviewID: atoui(row["review_id"]),
			AuthorID: atoui(row["author"]),
			Text:     row["text"],
		}
		if pubDate, err := time.Parse(time.RFC3339, row["pub_date"]); err == nil {
			comment.CreatedAt = pubDate
		}
		upsert(db, &comment, "comments")
	}
}
