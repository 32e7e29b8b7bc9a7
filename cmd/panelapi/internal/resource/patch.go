package resource

import (
	"fmt"

	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
	"github.com/mitchellh/mapstructure"
)

// Patch is a typed set of optional fields for one resource. Only the fields
// that were present in the request are returned by Fields.
type Patch interface {
	Fields() repository.Record
}

// UserPatch holds the writable fields of a user record.
type UserPatch struct {
	Name  *string `mapstructure:"name"`
	Email *string `mapstructure:"email"`
	Phone *string `mapstructure:"phone"`
	Role  *string `mapstructure:"role"`
}

func (p *UserPatch) Fields() repository.Record {
	out := repository.Record{}
	setString(out, "name", p.Name)
	setString(out, "email", p.Email)
	setString(out, "phone", p.Phone)
	setString(out, "role", p.Role)
	return out
}

// ProductPatch holds the writable fields of a product record.
type ProductPatch struct {
	Title       *string  `mapstructure:"title"`
	Price       *float64 `mapstructure:"price"`
	Description *string  `mapstructure:"description"`
	Category    *string  `mapstructure:"category"`
	Image       *string  `mapstructure:"image"`
}

func (p *ProductPatch) Fields() repository.Record {
	out := repository.Record{}
	setString(out, "title", p.Title)
	if p.Price != nil {
		out["price"] = *p.Price
	}
	setString(out, "description", p.Description)
	setString(out, "category", p.Category)
	setString(out, "image", p.Image)
	return out
}

func setString(r repository.Record, key string, v *string) {
	if v != nil {
		r[key] = *v
	}
}

// decodePatch maps a validated JSON object onto a fresh patch of type T.
// Unknown keys are rejected; "id" must already be stripped.
func decodePatch[T any, P interface {
	*T
	Patch
}](obj map[string]any) (Patch, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: false,
		Result:           &out,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(obj); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return P(&out), nil
}
