package catalog

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Campos del producto por los que se puede ordenar
var sortableFields = map[string]bool{
	"name":        true,
	"slug":        true,
	"basePrice":   true,
	"status":      true,
	"createdAt":   true,
	"updatedAt":   true,
	"description": true,
}

// Filter es la consulta del catálogo ya validada y con valores por defecto.
type Filter struct {
	Search       string
	CategorySlug string
	Colors       []string
	Sizes        []string
	PriceMin     *float64
	PriceMax     *float64
	SortField    string
	SortOrder    SortOrder
	Page         int
	PageSize     int
}

// FilterFromQuery arma un Filter desde los query params. Los números
// mal formados se ignoran en vez de rechazarse.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{
		Search:       strings.TrimSpace(q.Get("search")),
		CategorySlug: strings.TrimSpace(q.Get("category")),
		Colors:       splitList(q.Get("color")),
		Sizes:        splitList(q.Get("size")),
		PriceMin:     parseBound(q.Get("price_min")),
		PriceMax:     parseBound(q.Get("price_max")),
		SortField:    strings.TrimSpace(q.Get("sortBy")),
		SortOrder:    SortOrder(strings.ToLower(strings.TrimSpace(q.Get("order")))),
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.PageSize, _ = strconv.Atoi(q.Get("limit"))
	return f.Normalize()
}

// Normalize aplica defaults y descarta valores que el pipeline no usa.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.SortOrder != Desc {
		f.SortOrder = Asc
	}
	if !sortableFields[f.SortField] {
		f.SortField = ""
	}
	return f
}

// Skip es la cantidad de productos agrupados antes de la página pedida.
func (f Filter) Skip() int64 {
	return int64(f.Page-1) * int64(f.PageSize)
}

// EmptyPriceRange indica que ningún precio cumple ambos límites.
func (f Filter) EmptyPriceRange() bool {
	return f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax
}

// CacheKey no depende del orden de las listas.
func (f Filter) CacheKey() string {
	return fmt.Sprintf("q=%s|c=%s|col=%s|sz=%s|min=%s|max=%s|s=%s:%s|p=%d|l=%d",
		url.QueryEscape(strings.ToLower(f.Search)),
		f.CategorySlug,
		sortedJoin(f.Colors),
		sortedJoin(f.Sizes),
		formatBound(f.PriceMin),
		formatBound(f.PriceMax),
		f.SortField, f.SortOrder,
		f.Page, f.PageSize,
	)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBound(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func sortedJoin(values []string) string {
	cp := append([]string(nil), values...)
	sort.Strings(cp)
	return url.QueryEscape(strings.Join(cp, ","))
}
