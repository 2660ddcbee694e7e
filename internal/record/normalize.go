package record

import "fmt"

// Normalizer turns a raw payload into a collection of records of one shape.
type Normalizer func(raw []byte) ([]Record, error)

// Raw decodes a payload without reshaping it beyond requiring an id on every record.
func Raw(raw []byte) ([]Record, error) {
	return normalizeEach(raw, func(r Record) Record { return r })
}

// Books normalizes book records: "author" becomes "authors", a single author
// string becomes a one-element list, and "description" fills "longDescription".
func Books(raw []byte) ([]Record, error) {
	return normalizeEach(raw, func(r Record) Record {
		if _, ok := r["authors"]; !ok {
			if author, ok := r["author"]; ok {
				r["authors"] = author
			}
		}
		delete(r, "author")
		if authors := r.Strings("authors"); authors != nil {
			r["authors"] = authors
		} else {
			delete(r, "authors")
		}

		if _, ok := r["longDescription"]; !ok {
			if desc, ok := r["description"].(string); ok {
				r["longDescription"] = desc
			}
		}
		delete(r, "description")
		return r
	})
}

// CartItems normalizes cart records. Items written without their own id are
// keyed by the linked book id.
func CartItems(raw []byte) ([]Record, error) {
	return normalizeEach(raw, func(r Record) Record {
		if r.ID() == nil {
			if cartID, ok := r["cartid"]; ok && cartID != nil {
				r["id"] = cartID
			}
		}
		return r
	})
}

// Users normalizes user records. Empty phone and address fields are dropped.
func Users(raw []byte) ([]Record, error) {
	return normalizeEach(raw, func(r Record) Record {
		for _, field := range []string{"phone", "address"} {
			if r.String(field) == "" {
				delete(r, field)
			}
		}
		return r
	})
}

// ForCollection returns the normalizer for a collection name.
func ForCollection(collection string) Normalizer {
	switch collection {
	case "books":
		return Books
	case "cart":
		return CartItems
	case "users":
		return Users
	default:
		return Raw
	}
}

func normalizeEach(raw []byte, fn func(Record) Record) ([]Record, error) {
	records, err := Collection(raw)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for i, r := range records {
		r = fn(r.Clone())
		if r.ID() == nil || r.IDString() == "" {
			return nil, fmt.Errorf("element %d: %w", i, ErrMissingID)
		}
		out = append(out, r)
	}
	return out, nil
}
