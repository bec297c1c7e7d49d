package repos

import (
	"context"
	"embed"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// OpenDB opens the sqlite store and applies pending migrations.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}
	// sqlite has one writer; ":memory:" also needs a single connection to
	// keep the same database across queries.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the embedded goose migrations.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(log.New(log.Writer(), "[migrate] ", log.LstdFlags))
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	// Demo inserts a small cricket catalog and a shopper account when the
	// store has no categories yet.
	Demo bool
}

// Seed is idempotent and safe to run on every start.
func Seed(ctx context.Context, db *sqlx.DB, opt SeedOptions) error {
	if opt.AdminEmail != "" && opt.AdminPassword != "" {
		if err := seedUser(ctx, db, "u-admin", opt.AdminEmail, "Admin", "ADMIN", opt.AdminPassword); err != nil {
			return err
		}
	}
	if !opt.Demo {
		return nil
	}
	if err := seedUser(ctx, db, "u-demo", "player@pitchside.test", "Demo Player", "USER", "Passw0rd!"); err != nil {
		return err
	}
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Println("[seed] inserting demo categories/subcategories/products")
	return seedCatalog(ctx, db)
}

func seedUser(ctx context.Context, db *sqlx.DB, id, email, name, role, raw string) error {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO users(id,email,name,password_hash,role,created_at)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(email) DO NOTHING
	`, id, email, name, string(h), role, time.Now().UTC())
	return err
}

func seedCatalog(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	base := time.Now().UTC().Add(-time.Hour)
	at := func(i int) time.Time { return base.Add(time.Duration(i) * time.Second) }

	cats := []struct {
		id, name, desc string
		rank           int
	}{
		{"cat-bats", "Bats", "English and Kashmir willow bats", 0},
		{"cat-gloves", "Gloves", "Batting and wicket keeping gloves", 1},
		{"cat-pads", "Pads", "Leg guards", 2},
		{"cat-balls", "Balls", "Leather and tennis balls", 3},
	}
	for i, c := range cats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories(id,name,description,rank,created_at,updated_at) VALUES(?,?,?,?,?,?)`,
			c.id, c.name, c.desc, c.rank, at(i), at(i)); err != nil {
			return err
		}
	}

	subs := []struct {
		id, name, cat, parent string
		rank                  int
	}{
		{"sub-test", "Test", "cat-bats", "", 0},
		{"sub-t20", "T20", "cat-bats", "", 1},
		{"sub-premium", "Premium", "cat-bats", "sub-test", 0},
		{"sub-classic", "Classic", "cat-bats", "sub-test", 1},
		{"sub-batting-gloves", "Batting", "cat-gloves", "", 0},
		{"sub-keeping", "Wicket Keeping", "cat-gloves", "", 1},
		{"sub-batting-pads", "Batting Pads", "cat-pads", "", 0},
		{"sub-leather", "Leather", "cat-balls", "", 0},
	}
	for i, s := range subs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subcategories(id,name,rank,parent_category_id,parent_subcategory_id,created_at,updated_at)
			VALUES(?,?,?,?,?,?,?)`,
			s.id, s.name, s.rank, s.cat, nullable(s.parent), at(i), at(i)); err != nil {
			return err
		}
	}

	for i, sz := range []struct{ name, cat string }{
		{"SH", "cat-bats"}, {"LH", "cat-bats"}, {"Harrow", "cat-bats"},
		{"S", "cat-gloves"}, {"M", "cat-gloves"}, {"L", "cat-gloves"}, {"XL", "cat-gloves"},
		{"Youth", "cat-pads"}, {"Men", "cat-pads"},
	} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO sizes(id,name,category_id,created_at) VALUES(?,?,?,?)`,
			uuid.NewString(), sz.name, sz.cat, at(i)); err != nil {
			return err
		}
	}
	for i, c := range []string{"Natural", "White", "Black", "Red", "Blue"} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO colors(id,name,created_at) VALUES(?,?,?)`, uuid.NewString(), c, at(i)); err != nil {
			return err
		}
	}
	for i, q := range []string{"Grade 1", "Grade 2", "Grade 3"} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO qualities(id,name,created_at) VALUES(?,?,?)`, uuid.NewString(), q, at(i)); err != nil {
			return err
		}
	}

	prods := []struct {
		id, name, slug, quality, size, colors, tags, cat, sub, subsub string
		price                                                          float64
	}{
		{"p-reserve", "Reserve Edition English Willow", "reserve-edition-english-willow", "Grade 1", "SH", "Natural",
			`["english willow","premium"]`, "cat-bats", "sub-test", "sub-premium", 420},
		{"p-classic", "Classic Test Bat", "classic-test-bat", "Grade 2", "SH", "Natural",
			`["english willow"]`, "cat-bats", "sub-test", "sub-classic", 210},
		{"p-t20", "Power Hitter T20", "power-hitter-t20", "Grade 2", "LH", "Natural",
			`["kashmir willow","t20"]`, "cat-bats", "sub-t20", "", 95},
		{"p-gloves", "Pro Batting Gloves", "pro-batting-gloves", "Grade 1", "M", "White",
			`["gloves"]`, "cat-gloves", "sub-batting-gloves", "", 60},
		{"p-keeper", "Keeper Mitts", "keeper-mitts", "Grade 2", "L", "Black",
			`["gloves","keeping"]`, "cat-gloves", "sub-keeping", "", 75},
		{"p-ball", "Match Ball 156g", "match-ball-156g", "Grade 1", "", "Red",
			`["leather"]`, "cat-balls", "sub-leather", "", 25},
	}
	for i, p := range prods {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products(id,name,slug,short_description,price,original_price,quality,size,colors,
			  tags_json,in_stock,images_json,category_id,subcategory_id,sub_subcategory_id,created_at,updated_at)
			VALUES(?,?,?,?,?,?,?,?,?,?,1,'[]',?,?,?,?,?)`,
			p.id, p.name, p.slug, p.name, p.price, p.price, p.quality, p.size, p.colors,
			p.tags, p.cat, p.sub, nullable(p.subsub), at(i), at(i)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// nullable maps "" to NULL for optional foreign keys.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
