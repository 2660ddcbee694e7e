package record

// Book is the typed view of a book record.
type Book struct {
	ID               string   `json:"id,omitempty"`
	Title            string   `json:"title" validate:"required,max=300"`
	Authors          []string `json:"authors,omitempty" validate:"dive,required"`
	ThumbnailURL     string   `json:"thumbnailUrl,omitempty" validate:"omitempty,url"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	LongDescription  string   `json:"longDescription,omitempty"`
}

// CartItem is the typed view of a cart record. CartID links to a book id.
type CartItem struct {
	ID        string `json:"id,omitempty"`
	CartID    string `json:"cartid" validate:"required"`
	CartTitle string `json:"carttitle,omitempty"`
	CartImage string `json:"cartimage,omitempty"`
}

// User is the typed view of a user record.
type User struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName,omitempty" validate:"max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,phone"`
	Address   string `json:"address,omitempty"`
}

// AsBook reads a normalized book record.
func AsBook(r Record) Book {
	return Book{
		ID:               r.IDString(),
		Title:            r.String("title"),
		Authors:          r.Strings("authors"),
		ThumbnailURL:     r.String("thumbnailUrl"),
		ShortDescription: r.String("shortDescription"),
		LongDescription:  r.String("longDescription"),
	}
}

// Record converts the book into a create/update payload. The id is left out.
func (b Book) Record() Record {
	r := Record{"title": b.Title}
	if len(b.Authors) > 0 {
		r["authors"] = b.Authors
	}
	putNonEmpty(r, "thumbnailUrl", b.ThumbnailURL)
	putNonEmpty(r, "shortDescription", b.ShortDescription)
	putNonEmpty(r, "longDescription", b.LongDescription)
	return r
}

// AsCartItem reads a normalized cart record.
func AsCartItem(r Record) CartItem {
	return CartItem{
		ID:        r.IDString(),
		CartID:    r.String("cartid"),
		CartTitle: r.String("carttitle"),
		CartImage: r.String("cartimage"),
	}
}

// Record converts the cart item into a create payload.
func (c CartItem) Record() Record {
	r := Record{"cartid": c.CartID}
	putNonEmpty(r, "carttitle", c.CartTitle)
	putNonEmpty(r, "cartimage", c.CartImage)
	return r
}

// AsUser reads a normalized user record.
func AsUser(r Record) User {
	return User{
		ID:        r.IDString(),
		FirstName: r.String("firstName"),
		LastName:  r.String("lastName"),
		Email:     r.String("email"),
		Phone:     r.String("phone"),
		Address:   r.String("address"),
	}
}

// Record converts the user into a create payload.
func (u User) Record() Record {
	r := Record{"firstName": u.FirstName, "email": u.Email}
	putNonEmpty(r, "lastName", u.LastName)
	putNonEmpty(r, "phone", u.Phone)
	putNonEmpty(r, "address", u.Address)
	return r
}

func putNonEmpty(r Record, key, value string) {
	if value != "" {
		r[key] = value
	}
}
