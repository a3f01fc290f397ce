package graphql

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/openshelf/openshelf/internal/library/domain"
	"github.com/openshelf/openshelf/internal/library/service"
)

// Resolver bundles the services the schema resolves against. Identity comes
// from the request context; the HTTP layer attaches it when the transport
// token is valid but never rejects on its own, so enforcement lives here.
type Resolver struct {
	Auth        *service.AuthService
	Catalog     *service.CatalogService
	Circulation *service.CirculationService
}

func requireUser(ctx context.Context) (domain.User, error) {
	user, ok := domain.UserFromContext(ctx)
	if !ok {
		return domain.User{}, service.ErrUnauthenticated
	}
	return user, nil
}

func requireCapability(ctx context.Context, c domain.Capability) (domain.User, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if !user.Role.Can(c) {
		return domain.User{}, service.ErrForbidden
	}
	return user, nil
}

func stringArg(p graphql.ResolveParams, name string) string {
	if v, ok := p.Args[name].(string); ok {
		return v
	}
	return ""
}

func intArg(p graphql.ResolveParams, name string) int {
	if v, ok := p.Args[name].(int); ok {
		return v
	}
	return 0
}

func optStringArg(p graphql.ResolveParams, name string) *string {
	if v, ok := p.Args[name].(string); ok {
		return &v
	}
	return nil
}

func optIntArg(p graphql.ResolveParams, name string) *int64 {
	if v, ok := p.Args[name].(int); ok {
		n := int64(v)
		return &n
	}
	return nil
}

func optTimeArg(p graphql.ResolveParams, name string) *time.Time {
	if v, ok := p.Args[name].(time.Time); ok {
		return &v
	}
	return nil
}

// NewSchema builds the executable schema around the resolver.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"role":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"updatedAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	bookType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Book",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"author":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"isbn":            &graphql.Field{Type: graphql.String},
			"publicationDate": &graphql.Field{Type: graphql.DateTime},
			"genre":           &graphql.Field{Type: graphql.String},
			"totalCopies":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"availableCopies": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	borrowType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Borrow",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"userId":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"bookId":     &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"borrowDate": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"returnDate": &graphql.Field{Type: graphql.DateTime},
		},
	})

	availabilityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AvailabilityReport",
		Fields: graphql.Fields{
			"totalBooks":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"availableBooks": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"borrowedBooks":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	bookBorrowCountType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BookBorrowCount",
		Fields: graphql.Fields{
			"bookId":      &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"title":       &graphql.Field{Type: graphql.String},
			"author":      &graphql.Field{Type: graphql.String},
			"borrowCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	bookPageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BookPage",
		Fields: graphql.Fields{
			"page":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"limit":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"totalPages": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"total":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"items":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(bookType))},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"user":  &graphql.Field{Type: graphql.NewNonNull(userType)},
			"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return requireUser(p.Context)
				},
			},
			"books": &graphql.Field{
				Type: bookPageType,
				Args: graphql.FieldConfigArgument{
					"page":   &graphql.ArgumentConfig{Type: graphql.Int},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
					"genre":  &graphql.ArgumentConfig{Type: graphql.String},
					"author": &graphql.ArgumentConfig{Type: graphql.String},
					"title":  &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if _, err := requireUser(p.Context); err != nil {
						return nil, err
					}
					filter := domain.BookFilter{
						Genre:  stringArg(p, "genre"),
						Author: stringArg(p, "author"),
						Title:  stringArg(p, "title"),
						Page:   intArg(p, "page"),
						Limit:  intArg(p, "limit"),
					}.Normalize()

					books, total, err := r.Catalog.List(p.Context, filter)
					if err != nil {
						return nil, err
					}
					return newBookPage(filter, books, total), nil
				},
			},
			"availabilityReport": &graphql.Field{
				Type: availabilityType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if _, err := requireCapability(p.Context, domain.CapViewReports); err != nil {
						return nil, err
					}
					return r.Catalog.Availability(p.Context)
				},
			},
			"mostBorrowedBooks": &graphql.Field{
				Type: graphql.NewList(bookBorrowCountType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if _, err := requireCapability(p.Context, domain.CapViewReports); err != nil {
						return nil, err
					}
					return r.Circulation.MostBorrowed(p.Context)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"role":     &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					user, token, err := r.Auth.Register(p.Context,
						stringArg(p, "name"), stringArg(p, "email"),
						stringArg(p, "password"), stringArg(p, "role"))
					if err != nil {
						return nil, err
					}
					return authPayload{User: user, Token: token}, nil
				},
			},
			"login": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					user, token, err := r.Auth.Login(p.Context,
						stringArg(p, "email"), stringArg(p, "password"))
					if err != nil {
						return nil, err
					}
					return authPayload{User: user, Token: token}, nil
				},
			},
			"addBook": &graphql.Field{
				Type: bookType,
				Args: graphql.FieldConfigArgument{
					"title":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"author":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"isbn":            &graphql.ArgumentConfig{Type: graphql.String},
					"publicationDate": &graphql.ArgumentConfig{Type: graphql.DateTime},
					"genre":           &graphql.ArgumentConfig{Type: graphql.String},
					"totalCopies":     &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if _, err := requireCapability(p.Context, domain.CapManageCatalog); err != nil {
						return nil, err
					}
					return r.Catalog.Add(p.Context, service.BookInput{
						Title:           stringArg(p, "title"),
						Author:          stringArg(p, "author"),
						ISBN:            optStringArg(p, "isbn"),
						PublicationDate: optTimeArg(p, "publicationDate"),
						Genre:           optStringArg(p, "genre"),
						TotalCopies:     optIntArg(p, "totalCopies"),
					})
				},
			},
			"borrowBook": &graphql.Field{
				Type: borrowType,
				Args: graphql.FieldConfigArgument{
					"bookId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					user, err := requireCapability(p.Context, domain.CapBorrow)
					if err != nil {
						return nil, err
					}
					return r.Circulation.Borrow(p.Context, user.ID, stringArg(p, "bookId"))
				},
			},
			"returnBook": &graphql.Field{
				Type: borrowType,
				Args: graphql.FieldConfigArgument{
					"borrowId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					user, err := requireCapability(p.Context, domain.CapBorrow)
					if err != nil {
						return nil, err
					}
					return r.Circulation.Return(p.Context, stringArg(p, "borrowId"), user.ID)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

type authPayload struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type bookPage struct {
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
	Total      int64         `json:"total"`
	Items      []domain.Book `json:"items"`
}

func newBookPage(f domain.BookFilter, books []domain.Book, total int64) bookPage {
	pages := 0
	if f.Limit > 0 {
		pages = int((total + int64(f.Limit) - 1) / int64(f.Limit))
	}
	return bookPage{
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: pages,
		Total:      total,
		Items:      books,
	}
}
