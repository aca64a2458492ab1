package service

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"compliancehub/internal/catalog/models"
	id "compliancehub/pkg/domain"
)

type seedFile struct {
	ComplianceTypes []seedEntry `yaml:"compliance_types"`
}

type seedEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	FormCode    string `yaml:"form_code"`
	Category    string `yaml:"category"`
	Periodicity string `yaml:"periodicity"`
	Description string `yaml:"description"`
}

// LoadSeedFile reads a YAML catalog seed from path.
func LoadSeedFile(path string) ([]models.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// ParseSeed decodes a YAML catalog seed:
//
//	compliance_types:
//	  - id: gstr-3b
//	    name: GSTR-3B
//	    periodicity: monthly
func ParseSeed(r io.Reader) ([]models.Definition, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}

	defs := make([]models.Definition, 0, len(doc.ComplianceTypes))
	for i, e := range doc.ComplianceTypes {
		typeID, err := id.ParseComplianceTypeID(e.ID)
		if err != nil {
			return nil, fmt.Errorf("catalog seed entry %d: %w", i, err)
		}
		periodicity, err := models.ParsePeriodicity(e.Periodicity)
		if err != nil {
			return nil, fmt.Errorf("catalog seed entry %d (%s): %w", i, typeID, err)
		}
		def := models.Definition{
			ID:          typeID,
			Name:        e.Name,
			FormCode:    e.FormCode,
			Category:    e.Category,
			Periodicity: periodicity,
			Description: e.Description,
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("catalog seed entry %d (%s): %w", i, typeID, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
