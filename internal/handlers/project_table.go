package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vicbox/starterkit/internal/datatable"
	"github.com/vicbox/starterkit/internal/models"
)

const projectExportPrefix = "projects"

var projectColumns = []datatable.Column[*models.Project]{
	{ID: datatable.SelectColumnID, DisableSorting: true, DisableHiding: true, Size: 40},
	{
		AccessorKey: "name",
		Header:      "Name",
		Accessor:    func(p *models.Project) any { return p.Name },
		Size:        200,
	},
	{
		AccessorKey: "description",
		Header:      "Description",
		Accessor:    func(p *models.Project) any { return p.Description },
		Size:        300,
	},
	{
		AccessorKey: "status",
		Header:      "Status",
		Accessor:    func(p *models.Project) any { return string(p.Status) },
		FilterFn:    datatable.FilterInSet,
	},
	{
		AccessorKey: "visibility",
		Header:      "Visibility",
		Accessor:    func(p *models.Project) any { return string(p.Visibility) },
		FilterFn:    datatable.FilterInSet,
	},
	{
		AccessorKey: "created_at",
		Header:      "Created At",
		Accessor:    func(p *models.Project) any { return p.CreatedAt },
	},
	{ID: datatable.ActionsColumnID, DisableSorting: true, DisableHiding: true, Size: 60},
}

func projectFacets() []datatable.Facet {
	statuses := make([]datatable.FacetOption, 0, len(models.ProjectStatuses))
	for _, s := range models.ProjectStatuses {
		statuses = append(statuses, datatable.FacetOption{Label: titleCase(string(s)), Value: string(s)})
	}

	return []datatable.Facet{
		{Label: "Status", ColumnID: "status", Options: statuses},
		{Label: "Visibility", ColumnID: "visibility", Options: []datatable.FacetOption{
			{Label: "Private", Value: string(models.VisibilityPrivate)},
			{Label: "Public", Value: string(models.VisibilityPublic)},
		}},
	}
}

// newProjectTable builds the project browser over the caller's projects
func newProjectTable(projects []*models.Project, onDelete datatable.DeleteFunc, notifier datatable.Notifier) (*datatable.Table[*models.Project], error) {
	return datatable.New(projects, datatable.Options[*models.Project]{
		Columns:      projectColumns,
		RowID:        func(p *models.Project) string { return p.ID },
		FilterColumn: "name",
		Facets:       projectFacets(),
		ExportPrefix: projectExportPrefix,
		OnDelete:     onDelete,
		Notifier:     notifier,
	})
}

// applyProjectQuery maps the listing query string onto the table state:
//
//	q           name contains
//	status      comma-separated status set
//	visibility  comma-separated visibility set
//	sort        e.g. "name,-created_at"
//	hide        comma-separated columns to hide
//	pin         comma-separated side:column pairs, e.g. "left:name,right:actions"
//	page_size   rows per page
//	page        1-based page number
func applyProjectQuery(table *datatable.Table[*models.Project], query url.Values) error {
	if err := table.SetColumnFilter("name", strings.TrimSpace(query.Get("q"))); err != nil {
		return err
	}
	for _, facet := range []string{"status", "visibility"} {
		if err := table.SetColumnFilter(facet, splitList(query.Get(facet))); err != nil {
			return err
		}
	}

	if sort := query.Get("sort"); sort != "" {
		if err := table.SetSorting(datatable.ParseSorting(sort)); err != nil {
			return err
		}
	}

	for _, id := range splitList(query.Get("hide")) {
		if err := table.SetColumnVisibility(id, false); err != nil {
			return err
		}
	}

	for _, entry := range splitList(query.Get("pin")) {
		side, id, ok := strings.Cut(entry, ":")
		pos := datatable.PinPosition(strings.ToLower(strings.TrimSpace(side)))
		if !ok || (pos != datatable.PinLeft && pos != datatable.PinRight) {
			return fmt.Errorf("invalid pin %q, want left:<column> or right:<column>", entry)
		}
		if err := table.PinColumn(strings.TrimSpace(id), pos); err != nil {
			return err
		}
	}

	if raw := query.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid page_size %q", raw)
		}
		table.SetPageSize(size)
	}
	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return fmt.Errorf("invalid page %q", raw)
		}
		table.SetPageIndex(page - 1)
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
