// Package domain defines issuance requests and the credential subjects of
// each credential type.
package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Subject attribute values fixed by the membership and dismantler credentials.
const (
	MemberOfCatenaX          = "Catena-X"
	StatusActive             = "Active"
	ActivityVehicleDismantle = "vehicleDismantle"
)

// BusinessPartnerSubject is the subject of the baseline credential every
// wallet receives on creation.
type BusinessPartnerSubject struct {
	Type string `mapstructure:"type"`
	ID   string `mapstructure:"id"`
	BPN  string `mapstructure:"bpn"`
}

// MembershipSubject states that the holder is a member of the network.
type MembershipSubject struct {
	Type             string `mapstructure:"type"`
	ID               string `mapstructure:"id"`
	HolderIdentifier string `mapstructure:"holderIdentifier"`
	MemberOf         string `mapstructure:"memberOf"`
	Status           string `mapstructure:"status"`
	StartTime        string `mapstructure:"startTime"`
}

// DismantlerSubject states that the holder may dismantle vehicles of the
// allowed brands.
type DismantlerSubject struct {
	Type                 string   `mapstructure:"type"`
	ID                   string   `mapstructure:"id"`
	HolderIdentifier     string   `mapstructure:"holderIdentifier"`
	ActivityType         string   `mapstructure:"activityType"`
	AllowedVehicleBrands []string `mapstructure:"allowedVehicleBrands"`
}

// FrameworkSubject states that the holder signed a use case framework
// agreement.
type FrameworkSubject struct {
	Type             string `mapstructure:"type"`
	ID               string `mapstructure:"id"`
	HolderIdentifier string `mapstructure:"holderIdentifier"`
	UseCaseType      string `mapstructure:"useCaseType"`
	ContractTemplate string `mapstructure:"contractTemplate"`
	ContractVersion  string `mapstructure:"contractVersion"`
}

// SummarySubject lists the framework credential types a wallet holds.
type SummarySubject struct {
	Type             string   `mapstructure:"type"`
	ID               string   `mapstructure:"id"`
	HolderIdentifier string   `mapstructure:"holderIdentifier"`
	Items            []string `mapstructure:"items"`
	ContractTemplate string   `mapstructure:"contractTemplate"`
}

// EncodeSubject converts a subject struct into a credentialSubject map keyed
// by its mapstructure tags.
func EncodeSubject(subject any) (map[string]any, error) {
	out := map[string]any{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create subject encoder: %w", err)
	}
	if err := decoder.Decode(subject); err != nil {
		return nil, fmt.Errorf("failed to encode credential subject: %w", err)
	}
	return out, nil
}
