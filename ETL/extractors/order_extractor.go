package extractors

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/LilVoxy/order_analytics/ETL/utils"
	"github.com/go-playground/validator/v10"
)

// element is one node of the generic document tree built by readTree.
type element struct {
	name     string
	line     int
	text     string
	children []*element
}

// orderRow holds the leaf values of one <order> before conversion.
type orderRow struct {
	ID         string `validate:"required,max=64"`
	CustomerID string `validate:"max=64"`
	OrderDate  string `validate:"required"`
}

var (
	orderFieldNames = map[string]string{
		"order_id":        "order_id",
		"customer_id":     "customer_id",
		"order_date":      "order_date",
		"order_date_time": "order_date",
	}
	orderRowFields = map[string]string{
		"ID":         "order_id",
		"CustomerID": "customer_id",
		"OrderDate":  "order_date",
	}
	itemFieldNames = map[string]string{
		"sku_id":       "sku_id",
		"sku":          "sku_id",
		"quantity":     "quantity",
		"sku_count":    "quantity",
		"amount":       "amount",
		"total_amount": "amount",
	}
)

// OrderExtractor reads the nested order document.
type OrderExtractor struct {
	logger   *utils.ETLLogger
	validate *validator.Validate
	loc      *time.Location
}

// NewOrderExtractor creates an OrderExtractor. Order timestamps are normalized to calendar
// dates in loc.
func NewOrderExtractor(logger *utils.ETLLogger, loc *time.Location) *OrderExtractor {
	return &OrderExtractor{
		logger:   logger,
		validate: validator.New(),
		loc:      loc,
	}
}

// ExtractOrders loads the XML document at path.
func (e *OrderExtractor) ExtractOrders(path string) ([]models.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.FileNotFoundError{Path: path, Err: err}
	}
	defer f.Close()

	return e.ParseOrders(path, f)
}

// ParseOrders parses an orders document; source names the input in errors.
func (e *OrderExtractor) ParseOrders(source string, r io.Reader) ([]models.Order, error) {
	root, err := readTree(source, xml.NewDecoder(r))
	if err != nil {
		return nil, err
	}

	if root.name != "orders" {
		return nil, &models.ParseError{Source: source, Line: root.line, Path: root.name, Msg: "root element must be <orders>"}
	}

	orders := make([]models.Order, 0, len(root.children))
	seen := make(map[string]int)
	for i, child := range root.children {
		if child.name != "order" {
			return nil, &models.ParseError{Source: source, Line: child.line, Path: "orders/" + child.name, Msg: "expected <order>"}
		}
		order, err := e.buildOrder(source, i+1, child)
		if err != nil {
			return nil, err
		}
		if prevLine, dup := seen[order.ID]; dup {
			return nil, &models.ValidationError{
				Source: source,
				Record: fmt.Sprintf("order %s (line %d)", order.ID, child.line),
				Field:  "order_id",
				Msg:    fmt.Sprintf("duplicate order id, first seen at line %d", prevLine),
			}
		}
		seen[order.ID] = child.line
		orders = append(orders, order)
	}

	e.logger.Debug("parsed %d orders from %s", len(orders), source)
	return orders, nil
}

// readTree reads the single root element and everything beneath it.
func readTree(source string, d *xml.Decoder) (*element, error) {
	var root *element
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, xmlParseError(source, d, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		line, _ := d.InputPos()
		if root != nil {
			return nil, &models.ParseError{Source: source, Line: line, Path: start.Name.Local, Msg: "document has more than one root element"}
		}
		root, err = parseElement(source, d, start, line)
		if err != nil {
			return nil, err
		}
	}
	if root == nil {
		return nil, &models.ParseError{Source: source, Msg: "document is empty"}
	}
	return root, nil
}

// parseElement consumes tokens up to the end tag of start, recursing into child elements.
func parseElement(source string, d *xml.Decoder, start xml.StartElement, line int) (*element, error) {
	el := &element{name: start.Name.Local, line: line}
	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, xmlParseError(source, d, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			childLine, _ := d.InputPos()
			child, err := parseElement(source, d, t, childLine)
			if err != nil {
				return nil, err
			}
			el.children = append(el.children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			el.text = strings.TrimSpace(text.String())
			return el, nil
		}
	}
}

func (e *OrderExtractor) buildOrder(source string, n int, el *element) (models.Order, error) {
	path := "orders/order"
	var (
		row   orderRow
		items *element
	)
	assigned := make(map[string]bool)

	for _, child := range el.children {
		if child.name == "items" {
			if items != nil {
				return models.Order{}, &models.ParseError{Source: source, Line: child.line, Path: path + "/items", Msg: "order has more than one <items> element"}
			}
			items = child
			continue
		}
		if child.name == "item" {
			return models.Order{}, &models.ParseError{Source: source, Line: child.line, Path: path + "/item", Msg: "<item> must be nested in <items>"}
		}
		field, known := orderFieldNames[child.name]
		if !known {
			continue
		}
		value, err := leafText(source, path, child)
		if err != nil {
			return models.Order{}, err
		}
		if assigned[field] {
			return models.Order{}, &models.ParseError{Source: source, Line: child.line, Path: path + "/" + child.name, Msg: "field given more than once"}
		}
		assigned[field] = true
		switch field {
		case "order_id":
			row.ID = value
		case "customer_id":
			row.CustomerID = value
		case "order_date":
			row.OrderDate = value
		}
	}

	record := fmt.Sprintf("order #%d (line %d)", n, el.line)
	if row.ID != "" {
		record = fmt.Sprintf("order %s (line %d)", row.ID, el.line)
	}

	if err := e.validate.Struct(row); err != nil {
		return models.Order{}, fieldValidationError(source, record, err, orderRowFields)
	}
	if items == nil {
		return models.Order{}, &models.ParseError{Source: source, Line: el.line, Path: path, Msg: fmt.Sprintf("%s has no <items> element", record)}
	}

	date, err := models.NormalizeDate(row.OrderDate, e.loc)
	if err != nil {
		return models.Order{}, &models.ValidationError{Source: source, Record: record, Field: "order_date", Msg: err.Error(), Err: err}
	}

	order := models.Order{
		ID:         row.ID,
		CustomerID: row.CustomerID,
		OrderDate:  date,
		Items:      make([]models.LineItem, 0, len(items.children)),
	}
	for _, itemEl := range items.children {
		if itemEl.name != "item" {
			return models.Order{}, &models.ParseError{Source: source, Line: itemEl.line, Path: path + "/items/" + itemEl.name, Msg: "expected <item>"}
		}
		item, err := e.buildItem(source, record, itemEl)
		if err != nil {
			return models.Order{}, err
		}
		if item.Amount > math.MaxInt64-order.Amount {
			return models.Order{}, &models.ValidationError{Source: source, Record: record, Field: "amount", Msg: "order total out of range"}
		}
		order.Items = append(order.Items, item)
		order.Amount += item.Amount
	}

	return order, nil
}

func (e *OrderExtractor) buildItem(source, record string, el *element) (models.LineItem, error) {
	path := "orders/order/items/item"
	values := make(map[string]string)
	for _, child := range el.children {
		field, known := itemFieldNames[child.name]
		if !known {
			continue
		}
		value, err := leafText(source, path, child)
		if err != nil {
			return models.LineItem{}, err
		}
		if _, dup := values[field]; dup {
			return models.LineItem{}, &models.ParseError{Source: source, Line: child.line, Path: path + "/" + child.name, Msg: "field given more than once"}
		}
		values[field] = value
	}

	invalid := func(field, msg string) error {
		return &models.ValidationError{Source: source, Record: fmt.Sprintf("%s item at line %d", record, el.line), Field: field, Msg: msg}
	}

	item := models.LineItem{SKU: values["sku_id"], Quantity: 1}
	if err := e.validate.Var(item.SKU, "max=64"); err != nil {
		return models.LineItem{}, invalid("sku_id", "sku_id is longer than 64 characters")
	}

	if raw := values["quantity"]; raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return models.LineItem{}, invalid("quantity", fmt.Sprintf("not an integer: %q", raw))
		}
		if qty < 0 {
			return models.LineItem{}, invalid("quantity", "must not be negative")
		}
		item.Quantity = qty
	}

	raw, ok := values["amount"]
	if !ok || raw == "" {
		return models.LineItem{}, invalid("amount", "amount is required")
	}
	amount, err := models.ParseMoney(raw)
	if err != nil {
		return models.LineItem{}, invalid("amount", err.Error())
	}
	if amount < 0 {
		return models.LineItem{}, invalid("amount", "must not be negative")
	}
	item.Amount = amount

	return item, nil
}

// leafText returns the text of a field element, which must not have children.
func leafText(source, parent string, el *element) (string, error) {
	if len(el.children) > 0 {
		return "", &models.ParseError{
			Source: source,
			Line:   el.children[0].line,
			Path:   parent + "/" + el.name + "/" + el.children[0].name,
			Msg:    fmt.Sprintf("<%s> must contain text only", el.name),
		}
	}
	return el.text, nil
}

// fieldValidationError converts validator output into a ValidationError; names maps struct
// field names to the names used in the source document.
func fieldValidationError(source, record string, err error, names map[string]string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		field := names[fieldErrs[0].Field()]
		if field == "" {
			field = strings.ToLower(fieldErrs[0].Field())
		}
		msg := fmt.Sprintf("%s is required", field)
		if fieldErrs[0].Tag() == "max" {
			msg = fmt.Sprintf("%s is longer than %s characters", field, fieldErrs[0].Param())
		}
		return &models.ValidationError{Source: source, Record: record, Field: field, Msg: msg, Err: err}
	}
	return &models.ValidationError{Source: source, Record: record, Msg: err.Error(), Err: err}
}

func xmlParseError(source string, d *xml.Decoder, err error) error {
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		return &models.ParseError{Source: source, Line: syntax.Line, Msg: "malformed xml", Err: err}
	}
	line, _ := d.InputPos()
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &models.ParseError{Source: source, Line: line, Msg: "malformed xml", Err: err}
}
