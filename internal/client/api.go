package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/catalog"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/listing"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

func catalogPath(kind models.Kind) string {
	if kind == models.KindRental {
		return "/api/rent"
	}
	return "/api/buy"
}

// Catalog fetches the unfiltered catalog of kind. Filtering happens locally.
func (c *Client) Catalog(ctx context.Context, kind models.Kind) ([]catalog.Item, error) {
	var page struct {
		Items []catalog.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, catalogPath(kind), nil, &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []catalog.Item{}
	}
	return page.Items, nil
}

// Sale calls GET /api/property/{id}/sale.
func (c *Client) Sale(ctx context.Context, id string) (*models.SaleProperty, error) {
	var p models.SaleProperty
	if err := c.do(ctx, http.MethodGet, "/api/property/"+url.PathEscape(id)+"/sale", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Rental calls GET /api/property/{id}/rental.
func (c *Client) Rental(ctx context.Context, id string) (*models.RentalProperty, error) {
	var p models.RentalProperty
	if err := c.do(ctx, http.MethodGet, "/api/property/"+url.PathEscape(id)+"/rental", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SubmitSale calls POST /api/sell.
func (c *Client) SubmitSale(ctx context.Context, f listing.SaleForm) (*models.SaleProperty, error) {
	var p models.SaleProperty
	if err := c.do(ctx, http.MethodPost, "/api/sell", f, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SubmitRental calls POST /api/rent/list.
func (c *Client) SubmitRental(ctx context.Context, f listing.RentalForm) (*models.RentalProperty, error) {
	var p models.RentalProperty
	if err := c.do(ctx, http.MethodPost, "/api/rent/list", f, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Owned calls GET /api/my-properties.
func (c *Client) Owned(ctx context.Context) (*listing.Owned, error) {
	var o listing.Owned
	if err := c.do(ctx, http.MethodGet, "/api/my-properties", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// DeleteListing calls DELETE /api/my-properties/{kind}/{id}.
func (c *Client) DeleteListing(ctx context.Context, kind models.Kind, id string) error {
	if id == "" {
		return apperr.New(apperr.NotFound, "client.DeleteListing", "property not found")
	}
	return c.do(ctx, http.MethodDelete, "/api/my-properties/"+string(kind)+"/"+url.PathEscape(id), nil, nil)
}

// Account calls GET /api/account.
func (c *Client) Account(ctx context.Context) (*models.Account, error) {
	var a models.Account
	if err := c.do(ctx, http.MethodGet, "/api/account", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Activity calls GET /api/account/activity. limit <= 0 uses the server
// default.
func (c *Client) Activity(ctx context.Context, limit int) ([]models.Activity, error) {
	path := "/api/account/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var events []models.Activity
	if err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}
