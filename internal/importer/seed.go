package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
)

// Seed files are plain comma-separated CSV with a header row. Columns
// are matched by name so the exports can reorder or append columns
// without breaking the loaders.

var itemRequired = []string{"SKU", "Description", "Brand"}

var customerRequired = []string{"Customer ID", "First Name", "Last Name", "Email", "Staff ID"}

var staffRequired = []string{"Staff ID", "Host", "Port", "Username", "Password"}

// ReadItemFile parses the item master CSV used for brand resolution.
func ReadItemFile(r io.Reader) ([]domain.Item, Result, error) {
	rows, colMap, err := readNamed(r, itemRequired)
	if err != nil {
		return nil, Result{}, fmt.Errorf("error reading item file: %w", err)
	}

	var items []domain.Item
	var res Result
	for i, row := range rows {
		get := fieldGetter(row, colMap)
		sku := get("SKU")
		if sku == "" {
			res.Skipped++
			log.Warn().Int("line", i+2).Msg("skipping item row without SKU")
			continue
		}
		items = append(items, domain.Item{
			SKU:            sku,
			Description:    get("Description"),
			Brand:          get("Brand"),
			UPC:            get("UPC"),
			UnitWeight:     domain.SafeDecimal(get("Unit Weight")),
			Price:          domain.SafeDecimal(get("Price")),
			Classification: get("Classification"),
			Notes:          get("Notes"),
		})
		res.Parsed++
	}
	return items, res, nil
}

// ReadCustomerFile parses the customer directory seed.
func ReadCustomerFile(r io.Reader) ([]domain.Customer, Result, error) {
	rows, colMap, err := readNamed(r, customerRequired)
	if err != nil {
		return nil, Result{}, fmt.Errorf("error reading customer file: %w", err)
	}

	var customers []domain.Customer
	var res Result
	for i, row := range rows {
		get := fieldGetter(row, colMap)
		id := get("Customer ID")
		if id == "" || get("Email") == "" {
			res.Skipped++
			log.Warn().Int("line", i+2).Msg("skipping customer row without id or email")
			continue
		}
		rank := get("Rank")
		if rank == "" {
			rank = domain.DefaultCustomerRank
		}
		customers = append(customers, domain.Customer{
			CustomerID: id,
			FirstName:  get("First Name"),
			LastName:   get("Last Name"),
			Email:      get("Email"),
			CCEmails:   get("CC Emails"),
			BCCEmails:  get("BCC Emails"),
			Categories: get("Categories"),
			Rank:       rank,
			StaffID:    get("Staff ID"),
		})
		res.Parsed++
	}
	return customers, res, nil
}

// ReadStaffFile parses the per-staff SMTP configuration seed.
func ReadStaffFile(r io.Reader) ([]domain.StaffMailConfig, Result, error) {
	rows, colMap, err := readNamed(r, staffRequired)
	if err != nil {
		return nil, Result{}, fmt.Errorf("error reading staff file: %w", err)
	}

	var configs []domain.StaffMailConfig
	var res Result
	for i, row := range rows {
		get := fieldGetter(row, colMap)
		id := get("Staff ID")
		if id == "" {
			res.Skipped++
			log.Warn().Int("line", i+2).Msg("skipping staff row without id")
			continue
		}
		host := get("Host")
		if host == "" {
			host = "smtp.gmail.com"
		}
		port, _ := strconv.Atoi(get("Port"))
		if port == 0 {
			port = 587
		}
		useTLS := get("Use TLS")
		configs = append(configs, domain.StaffMailConfig{
			StaffID:   id,
			FirstName: get("First Name"),
			LastName:  get("Last Name"),
			Host:      host,
			Port:      port,
			UseTLS:    useTLS == "" || useTLS == "1" || strings.EqualFold(useTLS, "true"),
			Username:  get("Username"),
			Password:  get("Password"),
		})
		res.Parsed++
	}
	return configs, res, nil
}

func readNamed(r io.Reader, required []string) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := colMap[col]; !ok {
			return nil, nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, colMap, nil
}

func fieldGetter(row []string, colMap map[string]int) func(string) string {
	return func(name string) string {
		if idx, ok := colMap[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
}
