package version

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/sectionkey"
)

// Diffable fields of a section, in the order replace ops are emitted.
var diffFields = []string{"title", "content", "sources", "status"}

// Diff computes the patch that transforms prev into next. Ops are
// ordered by section key so the same pair of snapshots always yields
// the same patch. Every remove and replace op carries the prior value,
// which is what makes Invert exact.
func Diff(prev, next []models.VersionableSection) (models.Patch, error) {
	prevByKey := indexByKey(prev)
	nextByKey := indexByKey(next)

	keys := make([]string, 0, len(prevByKey)+len(nextByKey))
	for k := range prevByKey {
		keys = append(keys, k)
	}
	for k := range nextByKey {
		if _, seen := prevByKey[k]; !seen {
			keys = append(keys, k)
		}
	}
	keys = sectionkey.Sort(keys)

	var patch models.Patch
	for _, key := range keys {
		before, inPrev := prevByKey[key]
		after, inNext := nextByKey[key]

		switch {
		case !inPrev:
			value, err := json.Marshal(after)
			if err != nil {
				return nil, fmt.Errorf("encode section %s: %w", key, err)
			}
			patch = append(patch, models.PatchOp{
				Op:    models.PatchOpAdd,
				Path:  "/" + key,
				Value: value,
			})

		case !inNext:
			prior, err := json.Marshal(before)
			if err != nil {
				return nil, fmt.Errorf("encode section %s: %w", key, err)
			}
			patch = append(patch, models.PatchOp{
				Op:    models.PatchOpRemove,
				Path:  "/" + key,
				Prior: prior,
			})

		default:
			ops, err := diffFieldOps(key, before, after)
			if err != nil {
				return nil, err
			}
			patch = append(patch, ops...)
		}
	}

	return patch, nil
}

func diffFieldOps(key string, before, after models.VersionableSection) (models.Patch, error) {
	var patch models.Patch
	for _, field := range diffFields {
		oldVal, err := marshalField(before, field)
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", key, field, err)
		}
		newVal, err := marshalField(after, field)
		if err != nil {
			return nil, fmt.Errorf("encode %s/%s: %w", key, field, err)
		}
		if bytes.Equal(oldVal, newVal) {
			continue
		}
		patch = append(patch, models.PatchOp{
			Op:    models.PatchOpReplace,
			Path:  "/" + key + "/" + field,
			Value: newVal,
			Prior: oldVal,
		})
	}
	return patch, nil
}

// Apply transforms a snapshot by a patch. The snapshot is not mutated;
// the result is returned in document order. Structural mismatches (add
// over an existing key, remove or replace on a missing one) fail with
// domain.ErrInvalidState rather than being papered over.
func Apply(snapshot []models.VersionableSection, patch models.Patch) ([]models.VersionableSection, error) {
	byKey := indexByKey(snapshot)

	for _, op := range patch {
		key, field, err := splitPath(op.Path)
		if err != nil {
			return nil, err
		}

		switch op.Op {
		case models.PatchOpAdd:
			if field != "" {
				return nil, fmt.Errorf("add op on field path %s: %w", op.Path, domain.ErrInvalidState)
			}
			if _, exists := byKey[key]; exists {
				return nil, fmt.Errorf("add %s: section already present: %w", key, domain.ErrInvalidState)
			}
			var section models.VersionableSection
			if err := json.Unmarshal(op.Value, &section); err != nil {
				return nil, fmt.Errorf("decode add %s: %w", key, err)
			}
			byKey[key] = section

		case models.PatchOpRemove:
			if field != "" {
				return nil, fmt.Errorf("remove op on field path %s: %w", op.Path, domain.ErrInvalidState)
			}
			if _, exists := byKey[key]; !exists {
				return nil, fmt.Errorf("remove %s: section not present: %w", key, domain.ErrInvalidState)
			}
			delete(byKey, key)

		case models.PatchOpReplace:
			if field == "" {
				return nil, fmt.Errorf("replace op needs a field path, got %s: %w", op.Path, domain.ErrInvalidState)
			}
			section, exists := byKey[key]
			if !exists {
				return nil, fmt.Errorf("replace %s: section not present: %w", key, domain.ErrInvalidState)
			}
			if err := unmarshalField(&section, field, op.Value); err != nil {
				return nil, fmt.Errorf("decode replace %s: %w", op.Path, err)
			}
			byKey[key] = section

		default:
			return nil, fmt.Errorf("unknown patch op %q: %w", op.Op, domain.ErrInvalidState)
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	keys = sectionkey.Sort(keys)

	result := make([]models.VersionableSection, 0, len(keys))
	for _, k := range keys {
		result = append(result, byKey[k])
	}
	return result, nil
}

// Invert returns the patch that undoes p. Ops reverse order, adds
// become removes, removes become adds and replaces swap value with
// prior. Invert(Invert(p)) equals p.
func Invert(p models.Patch) models.Patch {
	inverse := make(models.Patch, 0, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		op := p[i]
		switch op.Op {
		case models.PatchOpAdd:
			inverse = append(inverse, models.PatchOp{
				Op:    models.PatchOpRemove,
				Path:  op.Path,
				Prior: op.Value,
			})
		case models.PatchOpRemove:
			inverse = append(inverse, models.PatchOp{
				Op:    models.PatchOpAdd,
				Path:  op.Path,
				Value: op.Prior,
			})
		case models.PatchOpReplace:
			inverse = append(inverse, models.PatchOp{
				Op:    models.PatchOpReplace,
				Path:  op.Path,
				Value: op.Prior,
				Prior: op.Value,
			})
		}
	}
	return inverse
}

// sortSnapshot returns the sections in section key order, matching the
// ordering Apply produces.
func sortSnapshot(sections []models.VersionableSection) []models.VersionableSection {
	byKey := indexByKey(sections)
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	keys = sectionkey.Sort(keys)

	out := make([]models.VersionableSection, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

func indexByKey(sections []models.VersionableSection) map[string]models.VersionableSection {
	byKey := make(map[string]models.VersionableSection, len(sections))
	for _, s := range sections {
		byKey[s.SectionKey] = s
	}
	return byKey
}

func splitPath(path string) (key, field string, err error) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" || trimmed == path {
		return "", "", fmt.Errorf("malformed patch path %q: %w", path, domain.ErrInvalidState)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1], nil
	}
	return parts[0], "", nil
}

func marshalField(s models.VersionableSection, field string) ([]byte, error) {
	switch field {
	case "title":
		return json.Marshal(s.Title)
	case "content":
		return json.Marshal(s.Content)
	case "sources":
		return json.Marshal(s.Sources)
	case "status":
		return json.Marshal(s.Status)
	}
	return nil, fmt.Errorf("unknown field %q", field)
}

func unmarshalField(s *models.VersionableSection, field string, data []byte) error {
	switch field {
	case "title":
		return json.Unmarshal(data, &s.Title)
	case "content":
		return json.Unmarshal(data, &s.Content)
	case "sources":
		return json.Unmarshal(data, &s.Sources)
	case "status":
		return json.Unmarshal(data, &s.Status)
	}
	return fmt.Errorf("unknown field %q: %w", field, domain.ErrInvalidState)
}
