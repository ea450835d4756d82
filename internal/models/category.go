package models

// Category represents a signal category shown in the brief.
type Category struct {
	Slug        string `bson:"slug" json:"slug"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	Color       string `bson:"color" json:"color"`
	Order       int    `bson:"order" json:"order"`
}

// Catalog is a lookup of category metadata by slug.
type Catalog struct {
	categories []Category
}

// NewCatalog builds a Catalog from categories.
func NewCatalog(categories ...Category) Catalog {
	return Catalog{categories: append([]Category(nil), categories...)}
}

// DefaultCategories covers the categories used by the built-in query set.
var DefaultCategories = []Category{
	{Slug: "sanctions", Name: "Sanctions", Description: "Designations, delistings and sanctions enforcement", Color: "#D63031", Order: 10},
	{Slug: "money-laundering", Name: "Money Laundering", Description: "AML enforcement, mixers and laundering typologies", Color: "#E17055", Order: 20},
	{Slug: "exploit", Name: "Exploits", Description: "Protocol exploits, hacks and stolen-fund movements", Color: "#6C5CE7", Order: 30},
	{Slug: "fraud", Name: "Fraud", Description: "Scams, rug pulls and investment fraud", Color: "#FDCB6E", Order: 40},
	{Slug: "regulation", Name: "Regulation", Description: "Regulatory actions, guidance and licensing", Color: "#0984E3", Order: 50},
	{Slug: "terrorism-financing", Name: "Terrorism Financing", Description: "Terror-financing seizures and designations", Color: "#2D3436", Order: 60},
}

// DefaultCatalog returns a Catalog over DefaultCategories.
func DefaultCatalog() Catalog {
	return NewCatalog(DefaultCategories...)
}

// Get returns a category by its slug.
func (c Catalog) Get(slug string) (Category, bool) {
	for _, cat := range c.categories {
		if cat.Slug == slug {
			return cat, true
		}
	}
	return Category{}, false
}

// All returns every category in catalog order.
func (c Catalog) All() []Category {
	return append([]Category(nil), c.categories...)
}
