// Package analysis reduces raw annotation detections into a compact,
// categorized, confidence-scored summary suitable for prompting a
// generative model.
package analysis

// Bucket names. Every entity lands in exactly one bucket.
const (
	BucketRooms     = "rooms"
	BucketStyles    = "styles"
	BucketMaterials = "materials"
	BucketFeatures  = "features"
	BucketOther     = "other"

	BucketFurniture  = "furniture"
	BucketAppliances = "appliances"
	BucketFixtures   = "fixtures"

	BucketPrice          = "price"
	BucketPropertyDetail = "propertyDetail"
)

// Taxonomy holds the keyword lists used to classify entity descriptions.
// Matching is substring containment against the lowercased description, and
// the lists are always tested in the declared priority order.
type Taxonomy struct {
	Rooms     []string
	Styles    []string
	Materials []string

	Furniture  []string
	Appliances []string
	Fixtures   []string

	PropertyDetail []string
}

// DefaultTaxonomy returns the built-in real-estate keyword tables.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Rooms: []string{
			"kitchen", "bedroom", "bathroom", "living room", "dining room",
			"garage", "basement", "attic", "office", "closet", "hallway",
			"laundry", "pantry", "foyer", "balcony", "patio", "deck",
			"backyard", "garden", "pool",
		},
		Styles: []string{
			"modern", "contemporary", "traditional", "rustic", "industrial",
			"minimalist", "farmhouse", "colonial", "victorian", "craftsman",
			"mediterranean", "ranch",
		},
		Materials: []string{
			"hardwood", "granite", "marble", "tile", "carpet", "laminate",
			"stainless steel", "brick", "stone", "concrete", "stucco",
			"vinyl", "quartz", "wood",
		},
		Furniture: []string{
			"sofa", "couch", "chair", "table", "desk", "bed", "dresser",
			"cabinet", "shelf", "bookcase", "bench", "stool", "ottoman",
			"wardrobe", "nightstand",
		},
		Appliances: []string{
			"refrigerator", "oven", "stove", "microwave", "dishwasher",
			"washer", "dryer", "freezer", "range hood", "air conditioner",
		},
		Fixtures: []string{
			"sink", "faucet", "toilet", "bathtub", "shower", "chandelier",
			"lamp", "light", "ceiling fan", "fireplace", "window", "door",
			"mirror", "countertop",
		},
		PropertyDetail: []string{
			"bedroom", "bathroom", "square", "foot", "year", "built",
		},
	}
}
