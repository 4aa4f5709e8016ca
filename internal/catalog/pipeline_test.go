package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func stageNames(p mongo.Pipeline) []string {
	names := make([]string, 0, len(p))
	for _, stage := range p {
		names = append(names, stage[0].Key)
	}
	return names
}

func stage(t *testing.T, p mongo.Pipeline, name string, nth int) bson.D {
	t.Helper()
	seen := 0
	for _, s := range p {
		if s[0].Key == name {
			if seen == nth {
				value, ok := s[0].Value.(bson.D)
				require.True(t, ok, "%s stage is not a document", name)
				return value
			}
			seen++
		}
	}
	t.Fatalf("stage %s #%d not found in %v", name, nth, stageNames(p))
	return nil
}

func TestBuildPipelineStageOrder(t *testing.T) {
	lo, hi := 90.0, 160.0
	f := Filter{Colors: []string{"red"}, PriceMin: &lo, PriceMax: &hi}.Normalize()

	p := BuildPipeline(f, nil, "variants")

	assert.Equal(t,
		[]string{"$match", "$lookup", "$unwind", "$match", "$group", "$sort", "$skip", "$limit", "$replaceRoot"},
		stageNames(p))
}

func TestBuildPipelineWithoutFacetsSkipsVariantMatch(t *testing.T) {
	p := BuildPipeline(Filter{}.Normalize(), nil, "variants")

	assert.Equal(t,
		[]string{"$match", "$lookup", "$unwind", "$group", "$sort", "$skip", "$limit", "$replaceRoot"},
		stageNames(p))
	assert.Empty(t, stage(t, p, "$match", 0), "no search and no scope matches everything")
}

func TestBuildPipelineUnwindDropsProductsWithoutVariants(t *testing.T) {
	p := BuildPipeline(Filter{}.Normalize(), nil, "variants")
	for _, s := range p {
		if s[0].Key == "$unwind" {
			assert.Equal(t, "$variants", s[0].Value, "inner join: no preserveNullAndEmptyArrays")
			return
		}
	}
	t.Fatal("no $unwind stage")
}

func TestBuildPipelineProductMatch(t *testing.T) {
	shoes := primitive.NewObjectID()
	boots := primitive.NewObjectID()
	f := Filter{Search: "air max+"}.Normalize()

	match := stage(t, BuildPipeline(f, []primitive.ObjectID{shoes, boots}, "variants"), "$match", 0).Map()

	or, ok := match["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	nameCond := or[0].(bson.D).Map()["name"].(primitive.Regex)
	assert.Equal(t, `air max\+`, nameCond.Pattern, "search text is matched literally")
	assert.Equal(t, "i", nameCond.Options)

	category := match["category"].(bson.D).Map()
	assert.Equal(t, []primitive.ObjectID{shoes, boots}, category["$in"])
}

func TestBuildPipelineVariantMatch(t *testing.T) {
	lo, hi := 90.0, 160.0
	f := Filter{Colors: []string{"red"}, Sizes: []string{"M", "L"}, PriceMin: &lo, PriceMax: &hi}.Normalize()

	match := stage(t, BuildPipeline(f, nil, "variants"), "$match", 1).Map()

	assert.Equal(t, bson.D{{Key: "$in", Value: []string{"red"}}}, match["variants.attributes.color"])
	assert.Equal(t, bson.D{{Key: "$in", Value: []string{"M", "L"}}}, match["variants.attributes.size"])
	assert.Equal(t, bson.D{{Key: "$gte", Value: 90.0}, {Key: "$lte", Value: 160.0}}, match["variants.price"])
}

func TestBuildPipelineOnlyUpperBound(t *testing.T) {
	hi := 50.0
	match := stage(t, BuildPipeline(Filter{PriceMax: &hi}.Normalize(), nil, "variants"), "$match", 1).Map()

	assert.Equal(t, bson.D{{Key: "$lte", Value: 50.0}}, match["variants.price"])
}

func TestBuildPipelineGroupAggregatesSurvivingRows(t *testing.T) {
	group := stage(t, BuildPipeline(Filter{}.Normalize(), nil, "variants"), "$group", 0).Map()

	assert.Equal(t, "$_id", group["_id"])
	assert.Equal(t, bson.D{{Key: "$first", Value: "$$ROOT"}}, group["doc"])
	assert.Equal(t, bson.D{{Key: "$sum", Value: "$variants.stock"}}, group["totalStock"])
	assert.Equal(t, bson.D{{Key: "$push", Value: "$variants"}}, group["variants"])
}

func TestBuildPipelineSortAndPaginate(t *testing.T) {
	f := Filter{SortField: "basePrice", SortOrder: Desc, Page: 3, PageSize: 10}.Normalize()
	p := BuildPipeline(f, nil, "variants")

	assert.Equal(t, bson.D{{Key: "doc.basePrice", Value: -1}, {Key: "_id", Value: 1}}, stage(t, p, "$sort", 0))

	var skip, limit interface{}
	for _, s := range p {
		switch s[0].Key {
		case "$skip":
			skip = s[0].Value
		case "$limit":
			limit = s[0].Value
		}
	}
	assert.Equal(t, int64(20), skip)
	assert.Equal(t, int64(10), limit)
}

func TestBuildPipelineDefaultSortIsStable(t *testing.T) {
	p := BuildPipeline(Filter{}.Normalize(), nil, "variants")
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, stage(t, p, "$sort", 0))
}

func TestBuildPipelineLookupTarget(t *testing.T) {
	lookup := stage(t, BuildPipeline(Filter{}.Normalize(), nil, "sku_variants"), "$lookup", 0).Map()
	assert.Equal(t, "sku_variants", lookup["from"])
	assert.Equal(t, "_id", lookup["localField"])
	assert.Equal(t, "product", lookup["foreignField"])
}
