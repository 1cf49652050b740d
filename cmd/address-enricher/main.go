// address-enricher parses the free-text addresses in the master dataset
// with libpostal and backfills missing locality fields. It is a separate
// binary so the main merger does not link against the native libpostal
// library.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/nha-facilities/internal/postal"
)

func main() {
	var (
		input   = flag.String("input", "healthcare_master_dataset.csv", "Master dataset to enrich")
		output  = flag.String("output", "healthcare_master_enriched.csv", "Enriched output file")
		limit   = flag.Int("limit", 0, "Number of records to process (0 = all)")
		address = flag.String("address", "", "Single address to test parsing")
	)
	flag.Parse()

	if *address != "" {
		testParse(*address)
		return
	}

	if err := enrich(*input, *output, *limit); err != nil {
		log.Fatalf("Enrichment failed: %v", err)
	}
}

// testParse parses one address and prints its components.
func testParse(address string) {
	fmt.Printf("Input: %s\n\n", address)
	c := postal.Parse(postal.CleanAddress(address))
	fmt.Printf("Road:     %s\n", c.Road)
	fmt.Printf("Locality: %s\n", c.Locality())
	fmt.Printf("District: %s\n", c.District)
	fmt.Printf("State:    %s\n", c.State)
	fmt.Printf("Postcode: %s\n", c.Postcode)
}

// enrich streams the dataset through libpostal, adding parsed locality
// columns and filling empty pincode/district cells from the address text.
func enrich(inputPath, outputPath string, limit int) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", inputPath, err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer out.Close()

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	writer := csv.NewWriter(out)
	defer writer.Flush()

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	addrCol, ok := col["address"]
	if !ok {
		return fmt.Errorf("input has no address column")
	}
	pincodeCol, hasPincode := col["pincode"]
	districtCol, hasDistrict := col["district"]

	outHeader := append(append([]string{}, header...),
		"parsed_road", "parsed_locality", "parsed_district", "parsed_postcode")
	if err := writer.Write(outHeader); err != nil {
		return err
	}

	start := time.Now()
	processed := 0
	backfilled := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if limit > 0 && processed >= limit {
			break
		}

		// Pad short rows so column indexing stays valid.
		for len(row) < len(header) {
			row = append(row, "")
		}

		var c postal.Components
		if addr := postal.CleanAddress(row[addrCol]); addr != "" {
			c = postal.Parse(addr)
		}

		if hasPincode && row[pincodeCol] == "" && c.Postcode != "" {
			row[pincodeCol] = c.Postcode
			backfilled++
		}
		if hasDistrict && row[districtCol] == "" && c.District != "" {
			row[districtCol] = c.District
			backfilled++
		}

		row = append(row, c.Road, c.Locality(), c.District, c.Postcode)
		if err := writer.Write(row); err != nil {
			return err
		}

		processed++
		if processed%10000 == 0 {
			fmt.Printf("Processed %d records...\n", processed)
		}
	}

	fmt.Printf("Enriched %d records (%d fields backfilled) in %v\n",
		processed, backfilled, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Output: %s\n", outputPath)
	return writer.Error()
}
