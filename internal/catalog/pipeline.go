package catalog

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// BuildPipeline traduce el filtro a la agregación del catálogo sobre
// products. scope restringe la categoría cuando no es nil;
// variantsFrom es la colección unida por variants.product.
//
// El orden importa: búsqueda y categoría filtran productos, facetas y precio
// filtran variantes, orden y paginación aplican a productos agrupados.
func BuildPipeline(f Filter, scope []primitive.ObjectID, variantsFrom string) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: productMatch(f, scope)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: variantsFrom},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "product"},
			{Key: "as", Value: "variants"},
		}}},
		// Los productos sin variantes quedan afuera acá
		{{Key: "$unwind", Value: "$variants"}},
	}

	if m := variantMatch(f); len(m) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: m}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
			{Key: "totalStock", Value: bson.D{{Key: "$sum", Value: "$variants.stock"}}},
			{Key: "variants", Value: bson.D{{Key: "$push", Value: "$variants"}}},
		}}},
		bson.D{{Key: "$sort", Value: sortSpec(f)}},
		bson.D{{Key: "$skip", Value: f.Skip()}},
		bson.D{{Key: "$limit", Value: int64(f.PageSize)}},
		bson.D{{Key: "$replaceRoot", Value: bson.D{
			{Key: "newRoot", Value: bson.D{{Key: "$mergeObjects", Value: bson.A{
				"$doc",
				bson.D{
					{Key: "totalStock", Value: "$totalStock"},
					{Key: "variants", Value: "$variants"},
				},
			}}}},
		}}},
	)
	return pipeline
}

func productMatch(f Filter, scope []primitive.ObjectID) bson.D {
	match := bson.D{}
	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		match = append(match, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: pattern}},
			bson.D{{Key: "description", Value: pattern}},
		}})
	}
	if scope != nil {
		match = append(match, bson.E{Key: "category", Value: bson.D{{Key: "$in", Value: scope}}})
	}
	return match
}

func variantMatch(f Filter) bson.D {
	match := bson.D{}
	if len(f.Colors) > 0 {
		match = append(match, bson.E{Key: "variants.attributes.color", Value: bson.D{{Key: "$in", Value: f.Colors}}})
	}
	if len(f.Sizes) > 0 {
		// $in sobre un array matchea con cualquier elemento en común
		match = append(match, bson.E{Key: "variants.attributes.size", Value: bson.D{{Key: "$in", Value: f.Sizes}}})
	}
	price := bson.D{}
	if f.PriceMin != nil {
		price = append(price, bson.E{Key: "$gte", Value: *f.PriceMin})
	}
	if f.PriceMax != nil {
		price = append(price, bson.E{Key: "$lte", Value: *f.PriceMax})
	}
	if len(price) > 0 {
		match = append(match, bson.E{Key: "variants.price", Value: price})
	}
	return match
}

// sortSpec siempre termina en _id: la salida de $group no tiene orden
// propio y la paginación tiene que ser estable.
func sortSpec(f Filter) bson.D {
	if f.SortField == "" {
		return bson.D{{Key: "_id", Value: 1}}
	}
	dir := 1
	if f.SortOrder == Desc {
		dir = -1
	}
	return bson.D{
		{Key: "doc." + f.SortField, Value: dir},
		{Key: "_id", Value: 1},
	}
}
