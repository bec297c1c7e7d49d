package domain

import "time"

type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Rank        int       `db:"rank" json:"rank"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Subcategory is a node below a Category. ParentSubcategoryID is empty for
// direct children of the category and set for nested ones.
type Subcategory struct {
	ID                  string    `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	Rank                int       `db:"rank" json:"rank"`
	ParentCategoryID    string    `db:"parent_category_id" json:"parentCategory"`
	ParentSubcategoryID string    `db:"parent_subcategory_id" json:"parentSubCategory,omitempty"`
	CreatedAt           time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

func (s Subcategory) Nested() bool { return s.ParentSubcategoryID != "" }

// TreeSnapshot is everything needed to rebuild the category tree in memory.
type TreeSnapshot struct {
	Categories    []Category    `json:"categories"`
	Subcategories []Subcategory `json:"subcategories"`
}

type ProductImage struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
	Rank     int    `json:"rank"`
}

type Product struct {
	ID                  string         `db:"id" json:"id"`
	Name                string         `db:"name" json:"name"`
	Slug                string         `db:"slug" json:"slug"`
	ShortDescription    string         `db:"short_description" json:"shortDescription"`
	DetailedDescription string         `db:"detailed_description" json:"detailedDescription"`
	Price               float64        `db:"price" json:"price"`
	OriginalPrice       float64        `db:"original_price" json:"originalPrice"`
	Discount            float64        `db:"discount" json:"discount"`
	Tax                 float64        `db:"tax" json:"tax"`
	Quality             string         `db:"quality" json:"quality"`
	Size                string         `db:"size" json:"size"`
	Colors              string         `db:"colors" json:"colors"`
	Tags                []string       `db:"-" json:"tags"`
	TagsJSON            string         `db:"tags_json" json:"-"`
	InStock             bool           `db:"in_stock" json:"inStock"`
	Images              []ProductImage `db:"-" json:"images"`
	ImagesJSON          string         `db:"images_json" json:"-"`
	CategoryID          string         `db:"category_id" json:"category"`
	SubcategoryID       string         `db:"subcategory_id" json:"subCategory"`
	SubSubcategoryID    string         `db:"sub_subcategory_id" json:"subSubCategory,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updatedAt"`
}

// PrimaryImage returns the lowest ranked image, if any.
func (p Product) PrimaryImage() (ProductImage, bool) {
	if len(p.Images) == 0 {
		return ProductImage{}, false
	}
	best := p.Images[0]
	for _, im := range p.Images[1:] {
		if im.Rank < best.Rank {
			best = im
		}
	}
	return best, true
}

// Size values are category specific (bat sizes differ from glove sizes).
type Size struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	CategoryID string    `db:"category_id" json:"category"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type Color struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Quality struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
