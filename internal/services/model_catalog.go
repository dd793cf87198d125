package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"tagnotes/internal/assets"
	"tagnotes/internal/models"
)

// ModelCatalog is the read-only provider/model list embedded in the binary.
type ModelCatalog struct {
	providerOrder []string
	providerNames map[string]string
	models        map[string][]models.LLMModel
}

type rawModelFile struct {
	Providers []rawProvider `json:"providers"`
}

type rawProvider struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	Models      []rawModel `json:"models"`
}

type rawModel struct {
	DisplayName string `json:"displayName"`
	APIName     string `json:"apiName"`
	Default     bool   `json:"default,omitempty"`
}

func NewModelCatalog() (*ModelCatalog, error) {
	return ParseModelCatalog(assets.ModelsData)
}

func ParseModelCatalog(data []byte) (*ModelCatalog, error) {
	var parsed rawModelFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse models asset: %w", err)
	}

	c := &ModelCatalog{
		providerNames: make(map[string]string),
		models:        make(map[string][]models.LLMModel),
	}
	for _, provider := range parsed.Providers {
		providerID := strings.TrimSpace(provider.ID)
		if providerID == "" {
			continue
		}
		providerName := strings.TrimSpace(provider.DisplayName)
		if providerName == "" {
			providerName = providerID
		}
		c.providerNames[providerID] = providerName
		c.providerOrder = append(c.providerOrder, providerID)
		for _, mdl := range provider.Models {
			apiName := strings.TrimSpace(mdl.APIName)
			if apiName == "" {
				continue
			}
			c.models[providerID] = append(c.models[providerID], models.LLMModel{
				Key:          providerID + "|" + apiName,
				DisplayName:  strings.TrimSpace(mdl.DisplayName),
				APIName:      apiName,
				ProviderID:   providerID,
				ProviderName: providerName,
				Default:      mdl.Default,
			})
		}
	}
	return c, nil
}

// Providers returns provider ids in catalog order.
func (c *ModelCatalog) Providers() []string {
	return append([]string(nil), c.providerOrder...)
}

func (c *ModelCatalog) Models(providerID string) []models.LLMModel {
	return append([]models.LLMModel(nil), c.models[providerID]...)
}

// DefaultModel returns the provider's model flagged default, or its first.
func (c *ModelCatalog) DefaultModel(providerID string) (models.LLMModel, error) {
	list := c.models[providerID]
	if len(list) == 0 {
		return models.LLMModel{}, fmt.Errorf("provider %s has no catalog models", providerID)
	}
	for _, m := range list {
		if m.Default {
			return m, nil
		}
	}
	return list[0], nil
}

// ResolveModel maps a configured name to an API model name. Blank falls back
// to the default; names outside the catalog pass through unchanged.
func (c *ModelCatalog) ResolveModel(providerID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		def, err := c.DefaultModel(providerID)
		if err != nil {
			return "", err
		}
		return def.APIName, nil
	}
	for _, m := range c.models[providerID] {
		if m.APIName == name || strings.EqualFold(m.DisplayName, name) {
			return m.APIName, nil
		}
	}
	return name, nil
}
