// Package render prints SDK results as pterm tables or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/Infinity2209/user/pkg/sdk"
)

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(w io.Writer, rows pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// Price formats a price the way the catalogue shows it.
func Price(p float64) string {
	return "$" + strconv.FormatFloat(p, 'f', 2, 64)
}

// Users prints users as a table.
func Users(w io.Writer, users []sdk.User) error {
	rows := pterm.TableData{{"ID", "NAME", "EMAIL", "PHONE", "ROLE"}}
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.Name, u.Email, u.Phone, u.Role})
	}
	return table(w, rows)
}

// Products prints products as a table.
func Products(w io.Writer, products []sdk.Product) error {
	rows := pterm.TableData{{"ID", "TITLE", "PRICE", "CATEGORY"}}
	for _, p := range products {
		rows = append(rows, []string{p.ID, p.Title, Price(p.Price), p.Category})
	}
	return table(w, rows)
}

// PageFooter prints "Page x of y (n items)" under a paginated table.
func PageFooter(w io.Writer, page, totalPages, totalItems int) {
	if totalPages == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	fmt.Fprintf(w, "Page %d of %d (%d items)\n", page, totalPages, totalItems)
}

// Categories prints one category per line as a bullet list.
func Categories(w io.Writer, categories []string) error {
	if len(categories) == 0 {
		_, err := fmt.Fprintln(w, "No categories")
		return err
	}
	items := make([]pterm.BulletListItem, 0, len(categories))
	for _, c := range categories {
		items = append(items, pterm.BulletListItem{Text: c})
	}
	out, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

// Dashboard prints the landing summary. The user count is left out for
// roles that may not list users.
func Dashboard(w io.Writer, d *sdk.Dashboard) error {
	rows := pterm.TableData{
		{"METRIC", "VALUE"},
		{"Role", d.Role},
		{"Products", strconv.Itoa(d.Products)},
		{"Categories", strconv.Itoa(len(d.Categories))},
	}
	if d.ShowUsers {
		rows = append(rows, []string{"Users", strconv.Itoa(d.Users)})
	}
	return table(w, rows)
}
