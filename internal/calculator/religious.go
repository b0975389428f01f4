package calculator

import (
	"strings"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// Religious sub-categories
const (
	Mosque    = "mosque"
	Church    = "church"
	Synagogue = "synagogue"
	Temple    = "temple"
)

// Visit counting modes
const (
	VisitUnique = "unique"
	VisitTotal  = "total"
	VisitAny    = "any"
)

// religionKeywords is matched case-insensitively against POI category and name
var religionKeywords = map[string][]string{
	Mosque: {
		"mosque", "masjid", "cami", "mescit", "mescid",
		"مسجد", "جامع", "mosquée", "mosquee", "mezquita", "moschee",
	},
	Church: {
		"church", "cathedral", "chapel", "basilica", "kilise", "katedral", "şapel",
		"كنيسة", "كاتدرائية", "église", "eglise", "cathédrale", "iglesia", "catedral", "kirche", "dom", "kapelle",
	},
	Synagogue: {
		"synagogue", "sinagog", "havra", "كنيس", "sinagoga", "synagoge",
	},
	Temple: {
		"temple", "tapınak", "mabet", "معبد", "templo", "tempel", "pagoda",
	},
}

var religionOrder = []string{Mosque, Church, Synagogue, Temple}

// religionOf classifies a region by category first, then by keyword
func religionOf(r *models.VisitedRegion) string {
	cat := normalize(r.POICategory)
	for _, rel := range religionOrder {
		if cat == rel {
			return rel
		}
	}
	name := normalize(r.POIName)
	for _, rel := range religionOrder {
		for _, kw := range religionKeywords[rel] {
			if matchesKeyword(cat, kw) || matchesKeyword(name, kw) {
				return rel
			}
		}
	}
	return ""
}

// matchesKeyword does a substring match; very short keywords must match a whole word
func matchesKeyword(text, kw string) bool {
	if text == "" {
		return false
	}
	if len([]rune(kw)) > 3 {
		return strings.Contains(text, kw)
	}
	for _, w := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == '-' || r == '_' }) {
		if w == kw {
			return true
		}
	}
	return false
}

// ReligiousCalculator counts visits to places of worship. Religions limits the
// match set; empty means any religion unless params narrow it.
type ReligiousCalculator struct {
	Religions []string
}

// Calculate implements Calculator
func (c *ReligiousCalculator) Calculate(regions []models.VisitedRegion, params models.Params) int {
	allowed := c.Religions
	if len(allowed) == 0 {
		if rels, ok := params.Strings("religions"); ok && len(rels) > 0 {
			allowed = rels
		} else if rel, ok := params.String("religion"); ok && rel != "" {
			allowed = []string{rel}
		}
	}
	want := make(map[string]struct{}, len(allowed))
	for _, rel := range allowed {
		want[normalize(rel)] = struct{}{}
	}

	var matched []*models.VisitedRegion
	for i := range regions {
		rel := religionOf(&regions[i])
		if rel == "" {
			continue
		}
		if len(want) > 0 {
			if _, ok := want[rel]; !ok {
				continue
			}
		}
		matched = append(matched, &regions[i])
	}
	return countVisits(matched, params)
}

func countVisits(matched []*models.VisitedRegion, params models.Params) int {
	mode, _ := params.String("visitType")
	switch normalize(mode) {
	case VisitUnique:
		seen := make(map[string]struct{})
		for _, r := range matched {
			k := normalize(r.POIName)
			if k == "" {
				k = r.Geohash
			}
			seen[k] = struct{}{}
		}
		return len(seen)
	case VisitTotal:
		total := 0
		for _, r := range matched {
			if r.VisitCount > 0 {
				total += r.VisitCount
			} else {
				total++
			}
		}
		return total
	default:
		return len(matched)
	}
}

// multiReligion counts required religions visited at least once, or with
// mode=all returns 1 only when every required religion was visited
func multiReligion(regions []models.VisitedRegion, params models.Params) int {
	required, ok := params.Strings("requiredReligions")
	if !ok || len(required) == 0 {
		required = []string{Mosque, Church, Synagogue}
	}

	visited := make(map[string]struct{})
	for i := range regions {
		if rel := religionOf(&regions[i]); rel != "" {
			visited[rel] = struct{}{}
		}
	}

	count := 0
	for _, rel := range required {
		if _, ok := visited[normalize(rel)]; ok {
			count++
		}
	}

	if mode, _ := params.String("mode"); normalize(mode) == "all" {
		if count == len(required) {
			return 1
		}
		return 0
	}
	return count
}

// poi counts regions matching params.category, params.categories or
// params.keywords. Without any filter it returns 0.
func poi(regions []models.VisitedRegion, params models.Params) int {
	var categories []string
	if cs, ok := params.Strings("categories"); ok {
		categories = append(categories, cs...)
	}
	if cat, ok := params.String("category"); ok && cat != "" {
		categories = append(categories, cat)
	}
	keywords, _ := params.Strings("keywords")
	if len(categories) == 0 && len(keywords) == 0 {
		return 0
	}

	cats := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		cats[normalize(c)] = struct{}{}
	}

	var matched []*models.VisitedRegion
	for i := range regions {
		r := &regions[i]
		cat := normalize(r.POICategory)
		name := normalize(r.POIName)
		if cat == "" && name == "" {
			continue
		}
		if _, ok := cats[cat]; ok && cat != "" {
			matched = append(matched, r)
			continue
		}
		for _, kw := range keywords {
			kw = normalize(kw)
			if kw != "" && (strings.Contains(cat, kw) || strings.Contains(name, kw)) {
				matched = append(matched, r)
				break
			}
		}
	}
	return countVisits(matched, params)
}
