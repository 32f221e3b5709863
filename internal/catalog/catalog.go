// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog is the local product catalog: a SQLite-backed source
// adapter plus the import path that seeds it from YAML product files.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/atelier-commerce/stylesearch/pkg/types"
)

// SourceID is the local catalog's stable adapter identifier. The catalog
// always registers first, so it wins dedup ties against remote sources.
const SourceID = "local"

// Store is the SQLite-backed local catalog. It implements source.Adapter.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens or creates the catalog database at path and ensures the
// schema exists. A nil logger is replaced with a no-op.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	s := &Store{db: db, logger: logger.With(zap.String("source", SourceID))}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT,
			brand TEXT,
			description TEXT,
			price REAL NOT NULL CHECK (price >= 0),
			original_price REAL,
			rating REAL,
			review_count INTEGER,
			availability TEXT,
			shipping TEXT,
			image_url TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ID returns the adapter identifier.
func (s *Store) ID() string { return SourceID }

// Name returns the adapter display name.
func (s *Store) Name() string { return "Local Catalog" }

// Query scans the catalog for products matching any query term in title,
// category, brand, or description, constrained by the price and category
// filters. Relevance is left to the scorer; the scan only has to be a
// superset of what the scorer keeps.
func (s *Store) Query(ctx context.Context, q types.SearchQuery) ([]types.ProductRecord, error) {
	terms := q.Terms()
	if len(terms) == 0 {
		return nil, nil
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT id, title, category, brand, description, price,
		original_price, rating, review_count, availability, shipping, image_url
		FROM products WHERE (`)
	for i, term := range terms {
		if i > 0 {
			qb.WriteString(" OR ")
		}
		qb.WriteString(`(title LIKE ? OR category LIKE ? OR brand LIKE ? OR description LIKE ?)`)
		like := "%" + term + "%"
		args = append(args, like, like, like, like)
	}
	qb.WriteString(")")

	if q.Filters.MinPrice > 0 {
		qb.WriteString(" AND price >= ?")
		args = append(args, q.Filters.MinPrice)
	}
	if q.Filters.MaxPrice > 0 {
		qb.WriteString(" AND price <= ?")
		args = append(args, q.Filters.MaxPrice)
	}
	if q.Filters.Category != "" {
		qb.WriteString(" AND category = ? COLLATE NOCASE")
		args = append(args, q.Filters.Category)
	}
	qb.WriteString(" ORDER BY title")

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var records []types.ProductRecord
	for rows.Next() {
		r, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// List returns every catalog product ordered by title.
func (s *Store) List(ctx context.Context) ([]types.ProductRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, category, brand, description,
		price, original_price, rating, review_count, availability, shipping, image_url
		FROM products ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("listing catalog: %w", err)
	}
	defer rows.Close()

	var records []types.ProductRecord
	for rows.Next() {
		r, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Categories returns the distinct non-empty catalog categories. The
// session controller feeds these to the fallback suggester.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Import upserts products into the catalog. Invalid records are skipped
// with a warning, mirroring the normalizer's fail-closed policy. Returns
// the number of products written.
func (s *Store) Import(ctx context.Context, products []types.ProductRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO products
		(id, title, category, brand, description, price, original_price,
		 rating, review_count, availability, shipping, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing import: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, p := range products {
		p.Category = strings.ToLower(strings.TrimSpace(p.Category))
		if !p.Valid() {
			s.logger.Warn("skipping invalid product", zap.String("id", p.ID), zap.String("title", p.Title))
			continue
		}
		_, err := stmt.ExecContext(ctx, p.ID, p.Title, p.Category, p.Brand, p.Description,
			p.Price, p.OriginalPrice, p.Rating, p.ReviewCount,
			p.Availability, p.Shipping, p.ImageURL)
		if err != nil {
			return written, fmt.Errorf("inserting product %s: %w", p.ID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("committing import: %w", err)
	}
	s.logger.Info("catalog import done", zap.Int("written", written), zap.Int("skipped", len(products)-written))
	return written, nil
}

// SeedFile is the on-disk YAML shape for catalog imports.
type SeedFile struct {
	Products []types.ProductRecord `yaml:"products"`
}

// ImportFile reads a YAML seed file and imports its products.
func (s *Store) ImportFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing seed file: %w", err)
	}
	return s.Import(ctx, seed.Products)
}

func scanProduct(rows *sql.Rows) (types.ProductRecord, error) {
	var (
		r             types.ProductRecord
		category      sql.NullString
		brand         sql.NullString
		description   sql.NullString
		originalPrice sql.NullFloat64
		rating        sql.NullFloat64
		reviewCount   sql.NullInt64
		availability  sql.NullString
		shipping      sql.NullString
		imageURL      sql.NullString
	)
	err := rows.Scan(&r.ID, &r.Title, &category, &brand, &description, &r.Price,
		&originalPrice, &rating, &reviewCount, &availability, &shipping, &imageURL)
	if err != nil {
		return r, fmt.Errorf("scanning product: %w", err)
	}

	r.Category = category.String
	r.Brand = brand.String
	r.Description = description.String
	r.Availability = availability.String
	r.Shipping = shipping.String
	r.ImageURL = imageURL.String
	r.SourceID = SourceID
	if originalPrice.Valid {
		r.OriginalPrice = &originalPrice.Float64
	}
	if rating.Valid {
		r.Rating = &rating.Float64
	}
	if reviewCount.Valid {
		n := int(reviewCount.Int64)
		r.ReviewCount = &n
	}
	return r, nil
}
