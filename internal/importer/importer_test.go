package importer_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/importer"
)

type recordingSink struct {
	categories []importer.NewCategory
	items      []importer.NewItem
	failCodes  map[string]error
}

func (s *recordingSink) CreateCategory(_ context.Context, in importer.NewCategory) error {
	s.categories = append(s.categories, in)
	return nil
}

func (s *recordingSink) CreateItem(_ context.Context, in importer.NewItem) error {
	if err, ok := s.failCodes[in.Code]; ok {
		return err
	}
	s.items = append(s.items, in)
	return nil
}

func TestParseHonoursQuotes(t *testing.T) {
	rows, err := importer.Parse("x,y,z\na,\"b,c\",\"d\"\"e\"\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "a", rows[0]["x"])
	require.Equal(t, "b,c", rows[0]["y"])
	require.Equal(t, `d"e`, rows[0]["z"])
}

func TestParseIsLenient(t *testing.T) {
	text := "\n  name , code ,price\r\n\r\n Widget ,W-1\n   \nGadget,G-1,9.5,extra\n"
	rows, err := importer.Parse(text)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, importer.Row{"name": "Widget", "code": "W-1", "price": ""}, rows[0])
	require.Equal(t, importer.Row{"name": "Gadget", "code": "G-1", "price": "9.5"}, rows[1])
}

func TestParseUnterminatedQuoteStaysOnItsLine(t *testing.T) {
	rows, err := importer.Parse("name,subcategory\nPhones,\n\"Laptops,Gaming\nTablets,\nAudio,\r\nCables,\n")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row["name"])
	}
	require.Equal(t, []string{"Phones", "Laptops,Gaming", "Tablets", "Audio", "Cables"}, names)
	require.Equal(t, "", rows[1]["subcategory"])
}

func TestParseEmptyInputs(t *testing.T) {
	for _, text := range []string{"", "\n\n", "name,code\n"} {
		rows, err := importer.Parse(text)
		require.NoError(t, err)
		require.Empty(t, rows, "input %q", text)
	}
}

func TestValidateItemRowOrder(t *testing.T) {
	cases := []struct {
		row  importer.Row
		want string
	}{
		{importer.Row{"code": "", "price": "x"}, "Row 4: Item name is required"},
		{importer.Row{"name": "A", "price": "x"}, "Row 4: Item code is required"},
		{importer.Row{"name": "A", "code": "C", "price": "abc", "cost": "nope"}, "Row 4: Valid price is required"},
		{importer.Row{"name": "A", "code": "C", "price": "1.5"}, "Row 4: Valid cost is required"},
		{importer.Row{"name": "A", "code": "C", "price": "12abc", "cost": "1"}, "Row 4: Valid price is required"},
		{importer.Row{"name": "A", "code": "C", "price": "12", "cost": "3 rupees"}, "Row 4: Valid cost is required"},
	}
	for _, tc := range cases {
		err := importer.ValidateItemRow(tc.row, 3)
		require.EqualError(t, err, tc.want)
	}
	require.NoError(t, importer.ValidateItemRow(importer.Row{"name": "A", "code": "C", "price": "1.5", "cost": "1"}, 0))
}

func TestResolveCategoryFallback(t *testing.T) {
	known := []importer.CategoryRef{
		{ID: "main", Name: "Electronics"},
		{ID: "phones", Name: "Electronics", Subcategory: "Phones"},
	}
	id, ok := importer.ResolveCategoryID("Electronics", "Phones", known)
	require.True(t, ok)
	require.Equal(t, "phones", id)

	id, ok = importer.ResolveCategoryID("Electronics", "", known)
	require.True(t, ok)
	require.Equal(t, "main", id)

	id, ok = importer.ResolveCategoryID("Electronics", "Laptops", known)
	require.True(t, ok)
	require.Equal(t, "main", id)

	onlySub := []importer.CategoryRef{{ID: "tv", Name: "Electronics", Subcategory: "TV"}}
	id, ok = importer.ResolveCategoryID("Electronics", "Laptops", onlySub)
	require.True(t, ok)
	require.Equal(t, "tv", id)

	_, ok = importer.ResolveCategoryID("Toys", "", known)
	require.False(t, ok)
}

func TestRunIsolatesFailingCategoryRow(t *testing.T) {
	rows, err := importer.Parse("name,subcategory\nA,\nB,x\n ,y\nD,\nE,z\n")
	require.NoError(t, err)
	require.Len(t, rows, 5)

	sink := &recordingSink{}
	var progress [][2]int
	res, err := importer.Run(context.Background(), importer.KindCategories, rows, nil, sink, func(current, total int) {
		progress = append(progress, [2]int{current, total})
	})
	require.NoError(t, err)
	require.Equal(t, 4, res.Success)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, []string{"Row 3: Category name is required"}, res.Errors)

	names := make([]string, 0, len(sink.categories))
	for _, c := range sink.categories {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"A", "B", "D", "E"}, names)
	require.Nil(t, sink.categories[0].Subcategory)
	require.Equal(t, "x", *sink.categories[1].Subcategory)
	require.Equal(t, [][2]int{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}}, progress)
}

func TestRunItems(t *testing.T) {
	text := strings.Join([]string{
		"name,code,barcode,category_name,subcategory,cost,price,mrp,stock",
		"Phone,P-1,111,Electronics,Phones,100,150,175,3",
		"Cable,C-1,,Electronics,,5,9.99,,",
		"Mystery,M-1,,Toys,,1,2,,",
		"Dup,D-1,,,,1,2,,",
		"Broken,B-1,,,,1,2,,many",
		"Bad,X-1,,,,1,,,",
		"Blank,E-1,,,,1,2,,",
	}, "\n")
	rows, err := importer.Parse(text)
	require.NoError(t, err)

	snapshot := []importer.CategoryRef{
		{ID: "main", Name: "Electronics"},
		{ID: "phones", Name: "Electronics", Subcategory: "Phones"},
	}
	sink := &recordingSink{failCodes: map[string]error{
		"D-1": common.NewAppError("CONFLICT", `item code "D-1" already exists`, http.StatusConflict, errors.New("duplicate key")),
		"E-1": errors.New(" "),
	}}
	res, err := importer.Run(context.Background(), importer.KindItems, rows, snapshot, sink, nil)
	require.NoError(t, err)
	require.Equal(t, 7, res.Total)
	require.Equal(t, 2, res.Success)
	require.Equal(t, 5, res.Failed)
	require.Equal(t, []string{
		`Row 3: Category "Toys" not found`,
		`Row 4: item code "D-1" already exists`,
		"Row 5: Valid stock is required",
		"Row 6: Valid price is required",
		"Row 7: Failed to import",
	}, res.Errors)

	require.Len(t, sink.items, 2)
	phone := sink.items[0]
	require.Equal(t, "phones", *phone.CategoryID)
	require.Equal(t, "111", *phone.Barcode)
	require.Equal(t, 3, phone.Stock)
	require.Equal(t, "175", phone.MRP.String())
	require.Equal(t, "150", phone.Price.String())

	cable := sink.items[1]
	require.Equal(t, "main", *cable.CategoryID)
	require.Nil(t, cable.MRP)
	require.Nil(t, cable.Barcode)
	require.Equal(t, 0, cable.Stock)
}

func TestRunExplicitCategoryIDSkipsResolution(t *testing.T) {
	rows := []importer.Row{{"name": "A", "code": "A-1", "price": "1", "cost": "1", "category_id": "given", "category_name": "Nowhere"}}
	sink := &recordingSink{}
	res, err := importer.Run(context.Background(), importer.KindItems, rows, nil, sink, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Success)
	require.Equal(t, "given", *sink.items[0].CategoryID)
}

func TestDisplayErrorsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,brand\n")
	for i := 0; i < 25; i++ {
		b.WriteString(",acme\n")
	}
	b.WriteString("ok,acme\n")
	rows, err := importer.Parse(b.String())
	require.NoError(t, err)

	res, err := importer.Run(context.Background(), importer.KindCategories, rows, nil, &recordingSink{}, nil)
	require.NoError(t, err)
	require.Equal(t, 25, res.Failed)
	require.Equal(t, 1, res.Success)
	require.Len(t, res.Errors, 25)
	display := res.DisplayErrors()
	require.Len(t, display, importer.DisplayErrorLimit)
	require.Equal(t, "Row 20: Category name is required", display[19])
	require.Len(t, res.FirstErrors(5), 5)
	require.Len(t, res.FirstErrors(100), 25)
}

func TestRunStopsWhenContextEnds(t *testing.T) {
	rows := make([]importer.Row, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, importer.Row{"name": fmt.Sprintf("C%d", i)})
	}
	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{}
	res, err := importer.Run(ctx, importer.KindCategories, rows, nil, sink, func(current, _ int) {
		if current == 2 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, res.Success)
	require.Len(t, sink.categories, 2)
}

func TestTemplateAndKind(t *testing.T) {
	kind, err := importer.ParseKind(" Items ")
	require.NoError(t, err)
	require.Equal(t, importer.KindItems, kind)
	_, err = importer.ParseKind("customers")
	require.Error(t, err)

	rows, err := importer.Parse(importer.Template(importer.KindItems))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, importer.ValidateItemRow(rows[0], 0))
	require.Equal(t, []string{"name", "subcategory", "brand"}, importer.Columns(importer.KindCategories))
}
