package bulletin

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxItems bounds both the highlights and minor items lists.
const MaxItems = 20

var (
	versionPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-.*)?$`)
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// validateBulletin applies the bulletin rules fail-fast, in a fixed order:
// presence before format, scalars before lists. Only the first violation is
// reported.
func validateBulletin(doc map[string]any) error {
	version, err := requiredString(doc, "version")
	if err != nil {
		return err
	}
	if !versionPattern.MatchString(version) {
		return invalidf("version", "Invalid version format: %s (expected v1.2.0 or 1.2.0)", version)
	}

	releaseDate, err := requiredString(doc, "releaseDate")
	if err != nil {
		return err
	}
	if !datePattern.MatchString(releaseDate) {
		return invalidf("releaseDate", "Invalid date format: %s (expected YYYY-MM-DD)", releaseDate)
	}

	if items, ok := doc["highlights"].([]any); ok && len(items) > MaxItems {
		return invalidf("highlights", "Too many highlights: %d (max %d)", len(items), MaxItems)
	}
	if items, ok := doc["minorItems"].([]any); ok && len(items) > MaxItems {
		return invalidf("minorItems", "Too many minor items: %d (max %d)", len(items), MaxItems)
	}
	return nil
}

func asDocument(parsed any) (map[string]any, error) {
	doc, ok := parsed.(map[string]any)
	if !ok || doc == nil {
		return nil, invalidf("", "YAML data must be an object, got %s", describe(parsed))
	}
	return doc, nil
}

func requiredString(doc map[string]any, field string) (string, error) {
	raw, ok := doc[field]
	if !ok || raw == nil {
		return "", invalidf(field, "Missing required field: %s", field)
	}
	value, ok := raw.(string)
	if !ok {
		return "", invalidf(field, "%s must be a string, got %s", field, describe(raw))
	}
	if strings.TrimSpace(value) == "" {
		return "", invalidf(field, "Missing required field: %s", field)
	}
	return value, nil
}

// Decode performs the full structural pass and builds the typed Data value.
// The bulletin rules run first, so Decode never accepts what Validate rejects.
func Decode(parsed any) (Data, error) {
	doc, err := asDocument(parsed)
	if err != nil {
		return Data{}, err
	}
	if err := validateBulletin(doc); err != nil {
		return Data{}, err
	}

	data := Data{
		Version:     doc["version"].(string),
		ReleaseDate: doc["releaseDate"].(string),
		Highlights:  []HighlightItem{},
		MinorItems:  []MinorItem{},
	}

	summary, err := optionalString(doc, "summary", "summary")
	if err != nil {
		return Data{}, err
	}
	data.Summary = summary

	highlights, err := optionalList(doc, "highlights", "highlights")
	if err != nil {
		return Data{}, err
	}
	for i, raw := range highlights {
		item, err := decodeHighlight(raw, fmt.Sprintf("highlights[%d]", i))
		if err != nil {
			return Data{}, err
		}
		data.Highlights = append(data.Highlights, item)
	}

	minor, err := optionalList(doc, "minorItems", "minorItems")
	if err != nil {
		return Data{}, err
	}
	for i, raw := range minor {
		item, err := decodeMinor(raw, fmt.Sprintf("minorItems[%d]", i))
		if err != nil {
			return Data{}, err
		}
		data.MinorItems = append(data.MinorItems, item)
	}

	return data, nil
}

func decodeHighlight(raw any, path string) (HighlightItem, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return HighlightItem{}, invalidf(path, "%s must be an object, got %s", path, describe(raw))
	}

	var item HighlightItem
	var err error
	if item.ID, err = optionalString(m, "id", path+".id"); err != nil {
		return HighlightItem{}, err
	}
	if item.Title, err = nonEmptyString(m, "title", path+".title"); err != nil {
		return HighlightItem{}, err
	}
	if item.Description, err = nonEmptyString(m, "description", path+".description"); err != nil {
		return HighlightItem{}, err
	}
	if item.Screenshot, err = optionalString(m, "screenshot", path+".screenshot"); err != nil {
		return HighlightItem{}, err
	}

	rawTags, err := optionalList(m, "tags", path+".tags")
	if err != nil {
		return HighlightItem{}, err
	}
	item.Tags = make([]Tag, 0, len(rawTags))
	for i, rt := range rawTags {
		tagPath := fmt.Sprintf("%s.tags[%d]", path, i)
		s, ok := rt.(string)
		if !ok {
			return HighlightItem{}, invalidf(tagPath, "%s must be a string, got %s", tagPath, describe(rt))
		}
		tag, err := ParseTag(s)
		if err != nil {
			return HighlightItem{}, invalidf(tagPath, "%s: %v", tagPath, err)
		}
		item.Tags = append(item.Tags, tag)
	}
	return item, nil
}

func decodeMinor(raw any, path string) (MinorItem, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return MinorItem{}, invalidf(path, "%s must be an object, got %s", path, describe(raw))
	}

	var item MinorItem
	category, err := nonEmptyString(m, "category", path+".category")
	if err != nil {
		return MinorItem{}, err
	}
	if item.Category, err = ParseTag(category); err != nil {
		return MinorItem{}, invalidf(path+".category", "%s.category: %v", path, err)
	}
	if item.Title, err = nonEmptyString(m, "title", path+".title"); err != nil {
		return MinorItem{}, err
	}
	if item.Description, err = optionalString(m, "description", path+".description"); err != nil {
		return MinorItem{}, err
	}
	return item, nil
}

func optionalString(m map[string]any, key, path string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", invalidf(path, "%s must be a string, got %s", path, describe(raw))
	}
	return s, nil
}

func nonEmptyString(m map[string]any, key, path string) (string, error) {
	s, err := optionalString(m, key, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", invalidf(path, "%s must not be empty", path)
	}
	return s, nil
}

func optionalList(m map[string]any, key, path string) ([]any, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, invalidf(path, "%s must be a list, got %s", path, describe(raw))
	}
	return list, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
