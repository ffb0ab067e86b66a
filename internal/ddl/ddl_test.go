package ddl

import (
	"errors"
	"reflect"
	"testing"

	"modhub/internal/model"
)

func TestParse_MySQLDump(t *testing.T) {
	input := "CREATE TABLE `invoice` (\n" +
		"  `id` bigint NOT NULL AUTO_INCREMENT COMMENT 'primary key',\n" +
		"  `customer_id` bigint NOT NULL,\n" +
		"  `amount` decimal(10,2) NOT NULL DEFAULT '0.00' COMMENT 'gross amount',\n" +
		"  `status` varchar(32) DEFAULT 'open',\n" +
		"  `note` text,\n" +
		"  PRIMARY KEY (`id`),\n" +
		"  KEY `idx_customer` (`customer_id`)\n" +
		") ENGINE=InnoDB COMMENT='customer invoices';"

	tables, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	got := tables[0]
	want := model.TableDef{
		Name:    "invoice",
		Comment: "customer invoices",
		Columns: []model.ColumnDef{
			{Name: "id", Type: "bigint", Nullable: false, Comment: "primary key"},
			{Name: "customer_id", Type: "bigint", Nullable: false},
			{Name: "amount", Type: "decimal(10,2)", Nullable: false, Default: "0.00", Comment: "gross amount"},
			{Name: "status", Type: "varchar(32)", Nullable: true, Default: "open"},
			{Name: "note", Type: "text", Nullable: true},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parsed table mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestParse_MultipleStatements(t *testing.T) {
	input := `
CREATE TABLE workspaces (
  id integer not null,
  name text not null
);

CREATE TABLE IF NOT EXISTS members (
  id integer not null,
  email text
);
`
	tables, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if tables[0].Name != "workspaces" || tables[1].Name != "members" {
		t.Fatalf("unexpected table names: %q, %q", tables[0].Name, tables[1].Name)
	}
	if tables[0].Columns[0].Nullable {
		t.Fatalf("expected workspaces.id to be not null")
	}
	if !tables[1].Columns[1].Nullable {
		t.Fatalf("expected members.email to be nullable")
	}
}

func TestParse_SkipsConstraintLines(t *testing.T) {
	input := `CREATE TABLE t (
  a int NOT NULL,
  b int,
  CONSTRAINT fk_b FOREIGN KEY (b) REFERENCES other (id),
  UNIQUE KEY uq_a (a),
  CHECK (a > 0)
);`
	tables, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := len(tables[0].Columns); got != 2 {
		t.Fatalf("expected 2 columns, got %d: %+v", got, tables[0].Columns)
	}
}

func TestParse_EscapedQuoteInComment(t *testing.T) {
	input := `CREATE TABLE t (
  a text COMMENT 'user''s note'
);`
	tables, err := Parse(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := tables[0].Columns[0].Comment; got != "user's note" {
		t.Fatalf("expected unescaped comment, got %q", got)
	}
}

func TestParse_NoTables(t *testing.T) {
	if _, err := Parse("SELECT 1;"); !errors.Is(err, ErrNoTables) {
		t.Fatalf("expected ErrNoTables, got %v", err)
	}
	if _, err := Parse(""); !errors.Is(err, ErrNoTables) {
		t.Fatalf("expected ErrNoTables for empty input, got %v", err)
	}
}
