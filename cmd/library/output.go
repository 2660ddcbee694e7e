package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"booklib/internal/library"
	"booklib/internal/record"
	"booklib/internal/resolve"

	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// document is the machine-readable form of a result.
type document struct {
	Source   string          `json:"source" yaml:"source"`
	Degraded bool            `json:"degraded" yaml:"degraded"`
	Records  []record.Record `json:"records,omitempty" yaml:"records,omitempty"`
	Record   record.Record   `json:"record,omitempty" yaml:"record,omitempty"`
}

func toDocument(res resolve.Result) document {
	return document{Source: res.Source, Degraded: res.Degraded, Records: res.Records, Record: res.Record}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return checkFormat(format)
}

// render writes res with table for the default format, or as a document.
func (a *app) render(w io.Writer, res resolve.Result, table func(io.Writer, resolve.Result)) error {
	if a.output == "" || a.output == formatTable {
		table(w, res)
		return nil
	}
	return encode(w, a.output, toDocument(res))
}

func (a *app) renderOverview(w io.Writer, ov library.Overview) error {
	if a.output == "" || a.output == formatTable {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLLECTION\tCOUNT\tSOURCE")
		for _, row := range []struct {
			name string
			res  resolve.Result
		}{{"books", ov.Books}, {"users", ov.Users}, {"cart", ov.Cart}} {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", row.name, len(row.res.Records), row.res.Source)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if ov.Degraded() {
			fmt.Fprintln(w, "[some data is sample data]")
		}
		return nil
	}
	return encode(w, a.output, map[string]document{
		"books": toDocument(ov.Books),
		"users": toDocument(ov.Users),
		"cart":  toDocument(ov.Cart),
	})
}

// provenance labels data that did not come from the API.
func provenance(w io.Writer, res resolve.Result) {
	if res.Degraded {
		fmt.Fprintf(w, "[sample data: %s]\n", res.Source)
	}
}

func printBooks(w io.Writer, res resolve.Result) {
	provenance(w, res)
	if len(res.Records) == 0 {
		fmt.Fprintln(w, "no books")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS")
	for _, r := range res.Records {
		b := record.AsBook(r)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Title, strings.Join(b.Authors, ", "))
	}
	_ = tw.Flush()
}

func printBook(w io.Writer, res resolve.Result, id string) {
	provenance(w, res)
	if !res.Found() {
		fmt.Fprintf(w, "book %s not found\n", id)
		return
	}
	b := record.AsBook(res.Record)
	fmt.Fprintf(w, "%s\n", b.Title)
	if len(b.Authors) > 0 {
		fmt.Fprintf(w, "by %s\n", strings.Join(b.Authors, ", "))
	}
	if b.ThumbnailURL != "" {
		fmt.Fprintf(w, "cover: %s\n", b.ThumbnailURL)
	}
	if b.ShortDescription != "" {
		fmt.Fprintf(w, "\n%s\n", b.ShortDescription)
	}
	if b.LongDescription != "" {
		fmt.Fprintf(w, "\n%s\n", b.LongDescription)
	}
}

func printUsers(w io.Writer, res resolve.Result) {
	provenance(w, res)
	if len(res.Records) == 0 {
		fmt.Fprintln(w, "no users")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE")
	for _, r := range res.Records {
		u := record.AsUser(r)
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", u.ID, u.FirstName, u.LastName, u.Email, u.Phone)
	}
	_ = tw.Flush()
}

func printUser(w io.Writer, res resolve.Result, id string) {
	provenance(w, res)
	if !res.Found() {
		fmt.Fprintf(w, "user %s not found\n", id)
		return
	}
	u := record.AsUser(res.Record)
	fmt.Fprintf(w, "%s %s <%s>\n", u.FirstName, u.LastName, u.Email)
	if u.Phone != "" {
		fmt.Fprintf(w, "phone: %s\n", u.Phone)
	}
	if u.Address != "" {
		fmt.Fprintf(w, "address: %s\n", u.Address)
	}
}

func printCart(w io.Writer, res resolve.Result) {
	provenance(w, res)
	if len(res.Records) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tBOOK\tTITLE")
	for _, r := range res.Records {
		c := record.AsCartItem(r)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.CartID, c.CartTitle)
	}
	_ = tw.Flush()
}
