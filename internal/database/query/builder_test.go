// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package query

import (
	"strings"
	"testing"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		driver  string
		want    Dialect
		wantErr bool
	}{
		{"duckdb", DuckDB, false},
		{"SQLite", SQLite, false},
		{"postgres", Postgres, false},
		{"pgx", Postgres, false},
		{"mysql", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := ParseDialect(tt.driver)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDialect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDialect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDialect_DriverName(t *testing.T) {
	if DuckDB.DriverName() != "duckdb" || SQLite.DriverName() != "sqlite" || Postgres.DriverName() != "pgx" {
		t.Error("unexpected driver names")
	}
}

func TestValidateIdent(t *testing.T) {
	valid := []string{"products", "content_filtered", "_tmp", "public.products", "Category"}
	invalid := []string{"", "1abc", "drop table;", "a-b", "a..b", `x"y`}

	for _, name := range valid {
		if err := ValidateIdent(name); err != nil {
			t.Errorf("ValidateIdent(%q) error = %v", name, err)
		}
	}
	for _, name := range invalid {
		if err := ValidateIdent(name); err == nil {
			t.Errorf("ValidateIdent(%q) accepted", name)
		}
	}
}

func TestValidateType(t *testing.T) {
	valid := []string{"VARCHAR", "varchar(255)", "DECIMAL(10, 2)", "DOUBLE PRECISION", "INTEGER"}
	invalid := []string{"", "VARCHAR; DROP TABLE x", "TEXT)", "(1)"}

	for _, typ := range valid {
		if err := ValidateType(typ); err != nil {
			t.Errorf("ValidateType(%q) error = %v", typ, err)
		}
	}
	for _, typ := range invalid {
		if err := ValidateType(typ); err == nil {
			t.Errorf("ValidateType(%q) accepted", typ)
		}
	}
}

func testSpec() TableSpec {
	return TableSpec{
		Name:       "content_filtered",
		KeyColumns: []Column{{Name: "category", Type: "VARCHAR"}, {Name: "brand", Type: "VARCHAR"}},
		RefColumns: RefColumnNames("rcmd_", 4),
		RefType:    "VARCHAR",
	}
}

func TestCreateTable(t *testing.T) {
	spec := testSpec()
	spec.References = &ForeignKey{Table: "products", Column: "id"}

	ddl, err := CreateTable(spec)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}

	for _, want := range []string{
		`CREATE TABLE "content_filtered" (`,
		`"category" VARCHAR NOT NULL,`,
		`"rcmd_4" VARCHAR,`,
		`PRIMARY KEY ("category", "brand")`,
		`FOREIGN KEY ("rcmd_1") REFERENCES "products" ("id")`,
		`FOREIGN KEY ("rcmd_4") REFERENCES "products" ("id")`,
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("DDL missing %q:\n%s", want, ddl)
		}
	}

	spec.References = nil
	ddl, err = CreateTable(spec)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if strings.Contains(ddl, "FOREIGN KEY") {
		t.Errorf("DDL has foreign keys without References:\n%s", ddl)
	}
}

func TestCreateTable_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TableSpec)
	}{
		{"bad table", func(s *TableSpec) { s.Name = "x;y" }},
		{"no keys", func(s *TableSpec) { s.KeyColumns = nil }},
		{"no refs", func(s *TableSpec) { s.RefColumns = nil }},
		{"bad type", func(s *TableSpec) { s.KeyColumns[0].Type = "TEXT; --" }},
		{"duplicate column", func(s *TableSpec) { s.KeyColumns[1].Name = "Category" }},
		{"key clashes with ref", func(s *TableSpec) { s.KeyColumns[0].Name = "rcmd_1" }},
		{"bad fk", func(s *TableSpec) { s.References = &ForeignKey{Table: "products", Column: "id)"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := testSpec()
			tt.modify(&spec)
			if _, err := CreateTable(spec); err == nil {
				t.Error("CreateTable() accepted an invalid spec")
			}
		})
	}
}

func TestInsert(t *testing.T) {
	cols := testSpec().ColumnNames()

	got, err := Insert(Postgres, "content_filtered", cols)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	want := `INSERT INTO "content_filtered" ("category", "brand", "rcmd_1", "rcmd_2", "rcmd_3", "rcmd_4") VALUES ($1, $2, $3, $4, $5, $6)`
	if got != want {
		t.Errorf("Insert() =\n%s\nwant\n%s", got, want)
	}

	got, err = Insert(DuckDB, "content_filtered", cols[:2])
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if !strings.HasSuffix(got, "VALUES (?, ?)") {
		t.Errorf("Insert() = %s, want ? placeholders", got)
	}

	if _, err := Insert(DuckDB, "t", nil); err == nil {
		t.Error("Insert() accepted no columns")
	}
}

func TestDropTableIfExists(t *testing.T) {
	got, err := DropTableIfExists("public.content_filtered")
	if err != nil {
		t.Fatalf("DropTableIfExists() error = %v", err)
	}
	if got != `DROP TABLE IF EXISTS "public"."content_filtered"` {
		t.Errorf("DropTableIfExists() = %s", got)
	}
}

func TestWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()
	if !wb.IsEmpty() {
		t.Error("new builder not empty")
	}
	clause, args, err := wb.Build(DuckDB)
	if err != nil || clause != "1=1" || len(args) != 0 {
		t.Errorf("empty Build() = %q %v %v", clause, args, err)
	}

	wb.AddEquals("category", "shoes").AddEquals("brand", nil).AddEquals("size", 42)
	if wb.Count() != 3 {
		t.Errorf("Count() = %d, want 3", wb.Count())
	}

	clause, args, err = wb.Build(Postgres)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if clause != `"category" = $1 AND "brand" IS NULL AND "size" = $2` {
		t.Errorf("Build() clause = %s", clause)
	}
	if len(args) != 2 || args[0] != "shoes" || args[1] != 42 {
		t.Errorf("Build() args = %v", args)
	}

	if _, _, err := NewWhereBuilder().AddEquals("a b", 1).Build(SQLite); err == nil {
		t.Error("Build() accepted an invalid column")
	}
}

func TestSelect(t *testing.T) {
	q, args, err := Select("products", []string{"id", "category", "brand"}, nil, DuckDB)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if q != `SELECT "id", "category", "brand" FROM "products"` || args != nil {
		t.Errorf("Select() = %s %v", q, args)
	}

	q, args, err = Select("products", []string{"id"}, NewWhereBuilder().AddEquals("brand", "acme"), SQLite)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if q != `SELECT "id" FROM "products" WHERE "brand" = ?` || len(args) != 1 {
		t.Errorf("Select() = %s %v", q, args)
	}
}

func TestCreateTable_IfNotExists(t *testing.T) {
	spec := testSpec()
	spec.IfNotExists = true
	ddl, err := CreateTable(spec)
	if err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if !strings.HasPrefix(ddl, `CREATE TABLE IF NOT EXISTS "content_filtered" (`) {
		t.Errorf("CreateTable() = %s", ddl)
	}
}

func TestOrderedPage(t *testing.T) {
	got, err := OrderedPage(`SELECT "a" FROM "t"`, []string{"a", "b"}, 10, 20)
	if err != nil {
		t.Fatalf("OrderedPage() error = %v", err)
	}
	if got != `SELECT "a" FROM "t" ORDER BY "a", "b" LIMIT 10 OFFSET 20` {
		t.Errorf("OrderedPage() = %s", got)
	}

	for _, tc := range []struct{ limit, offset int }{{0, 0}, {1, -1}} {
		if _, err := OrderedPage("SELECT 1", nil, tc.limit, tc.offset); err == nil {
			t.Errorf("OrderedPage(%d, %d) accepted", tc.limit, tc.offset)
		}
	}
}
