package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/matheuskafuri/menuscore/internal/cache"
	"github.com/matheuskafuri/menuscore/internal/dining"
	"github.com/matheuskafuri/menuscore/internal/menu"
)

// FormTTL is how long the landing page's select options are reused.
const FormTTL = time.Hour

var (
	// ErrCampusNotListed means the landing page offers no matching campus.
	ErrCampusNotListed = errors.New("campus not offered by the menu site")
	// ErrDateNotListed means the landing page offers no menu for the date.
	ErrDateNotListed = errors.New("no menu published for this date")
)

// MenuPage is one fetched daily menu page. Meal is the meal the page was
// requested for, or Other when the page covers the whole day.
type MenuPage struct {
	Page
	Meal dining.Meal
}

// MenuSite fetches daily menu pages through the site's campus/date form.
type MenuSite struct {
	client *Client
	url    string
	forms  *cache.TTL[menu.Form]
}

// NewMenuSite returns a MenuSite for the landing page at menuURL.
func NewMenuSite(client *Client, menuURL string) *MenuSite {
	return &MenuSite{client: client, url: menuURL, forms: cache.NewTTL[menu.Form](FormTTL)}
}

// Form returns the landing page's select options, fetching them at most
// once per FormTTL.
func (s *MenuSite) Form(ctx context.Context) (menu.Form, error) {
	f, _, err := s.landing(ctx)
	return f, err
}

// landing returns the form and, when it had to be fetched, the landing page.
func (s *MenuSite) landing(ctx context.Context) (menu.Form, *Page, error) {
	if f, _, ok := s.forms.Get(s.url); ok {
		return f, nil, nil
	}
	page, err := s.client.Get(ctx, s.url)
	if err != nil {
		return menu.Form{}, nil, err
	}
	f := menu.ParseForm(bytes.NewReader(page.Body))
	if len(f.Campuses) > 0 {
		s.forms.Put(s.url, f)
	}
	return f, &page, nil
}

// FetchMenu retrieves the menu pages of campus for day. match is the text
// the campus option label contains. When the site offers a meal selector,
// one page per meal is requested; a meal that fails is skipped as long as
// another succeeds.
func (s *MenuSite) FetchMenu(ctx context.Context, match string, day time.Time) ([]MenuPage, error) {
	form, landing, err := s.landing(ctx)
	if err != nil {
		return nil, err
	}

	// a site without a selector serves the menu directly
	if len(form.Campuses) == 0 && landing != nil {
		return []MenuPage{{Page: *landing, Meal: dining.Other}}, nil
	}

	campusValue, ok := form.Campus(match)
	if !ok {
		return nil, fmt.Errorf("%q: %w", match, ErrCampusNotListed)
	}
	dateValue, ok := form.Date(day)
	if !ok {
		return nil, fmt.Errorf("%s: %w", day.Format(dining.DateLayout), ErrDateNotListed)
	}

	values := url.Values{}
	values.Set(menu.FieldCampus, campusValue)
	values.Set(menu.FieldDate, dateValue)

	meals := form.MealValues()
	if len(meals) == 0 {
		page, err := s.client.Post(ctx, s.url, values)
		if err != nil {
			return nil, err
		}
		return []MenuPage{{Page: page, Meal: dining.Other}}, nil
	}

	var (
		pages   []MenuPage
		lastErr error
	)
	for _, m := range meals {
		v := url.Values{}
		for k, vs := range values {
			v[k] = vs
		}
		v.Set(menu.FieldMeal, m.Value)
		page, err := s.client.Post(ctx, s.url, v)
		if err != nil {
			s.client.logger.Printf("menu for %s unavailable: %v", m.Meal, err)
			lastErr = err
			continue
		}
		pages = append(pages, MenuPage{Page: page, Meal: m.Meal})
	}
	if len(pages) == 0 {
		return nil, lastErr
	}
	return pages, nil
}
