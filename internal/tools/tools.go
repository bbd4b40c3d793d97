// Package tools holds the placeholder OSINT tools. Every tool validates its
// input and answers with fixed example data; nothing is looked up.
package tools

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/osintdesk/internal/core"
)

// Tool identifies a canned tool endpoint.
type Tool string

const (
	PhoneLookup      Tool = "phone-lookup"
	SocialAnalysis   Tool = "social-analysis"
	MetadataAnalysis Tool = "metadata-analysis"
	Geolocation      Tool = "geolocation"
	DocumentVerify   Tool = "document-verify"
	NeuralAssistant  Tool = "neural-assistant"
)

// Info describes a tool for listings.
type Info struct {
	Tool        Tool
	Title       string
	Description string
}

// Catalog lists every tool in display order.
var Catalog = []Info{
	{PhoneLookup, "Phone lookup", "Country, operator and region of a phone number"},
	{SocialAnalysis, "Social analysis", "Profile status of a username on a platform"},
	{MetadataAnalysis, "Metadata analysis", "Creation date, camera and location of a file"},
	{Geolocation, "Geolocation", "Coordinates for an address or place"},
	{DocumentVerify, "Document verification", "Format check of passport, INN, SNILS and OMS numbers"},
	{NeuralAssistant, "Assistant", "Scripted OSINT tips"},
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", core.ErrMissingInput, field)
	}
	return nil
}

// PhoneRequest is the input of the phone lookup.
type PhoneRequest struct {
	Phone string `json:"phone"`
}

// PhoneResult is the canned phone lookup answer.
type PhoneResult struct {
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	Operator string `json:"operator"`
	Region   string `json:"region"`
}

// LookupPhone answers a phone lookup.
func LookupPhone(req PhoneRequest) (*PhoneResult, error) {
	if err := required("phone", req.Phone); err != nil {
		return nil, err
	}
	return &PhoneResult{
		Phone:    req.Phone,
		Country:  "Russia",
		Operator: "Example Operator",
		Region:   "Example Region",
	}, nil
}

// SocialRequest is the input of the social profile analysis.
type SocialRequest struct {
	Username string `json:"username"`
	Platform string `json:"platform"`
}

// SocialResult is the canned social profile answer.
type SocialResult struct {
	Username string `json:"username"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
	Info     string `json:"info"`
}

// AnalyzeSocial answers a social profile analysis.
func AnalyzeSocial(req SocialRequest) (*SocialResult, error) {
	if err := required("username", req.Username); err != nil {
		return nil, err
	}
	return &SocialResult{
		Username: req.Username,
		Platform: req.Platform,
		Status:   "Profile found",
		Info:     "Basic information retrieved",
	}, nil
}

// MetadataRequest is the input of the metadata analysis. FileInfo is the
// name of the inspected file.
type MetadataRequest struct {
	FileInfo string `json:"fileInfo"`
}

// FileMetadata is the extracted metadata block.
type FileMetadata struct {
	Created  string `json:"created"`
	Camera   string `json:"camera"`
	Location string `json:"location"`
}

// MetadataResult is the canned metadata answer.
type MetadataResult struct {
	Filename string       `json:"filename"`
	Metadata FileMetadata `json:"metadata"`
}

// AnalyzeMetadata answers a metadata analysis.
func AnalyzeMetadata(req MetadataRequest) (*MetadataResult, error) {
	if err := required("fileInfo", req.FileInfo); err != nil {
		return nil, err
	}
	return &MetadataResult{
		Filename: req.FileInfo,
		Metadata: FileMetadata{
			Created:  "2024-01-01",
			Camera:   "Example Camera",
			Location: "Unknown",
		},
	}, nil
}

// GeoRequest is the input of the geolocation tool.
type GeoRequest struct {
	Query string `json:"query"`
}

// GeoResult is the canned geolocation answer.
type GeoResult struct {
	Query       string `json:"query"`
	Coordinates string `json:"coordinates"`
	Location    string `json:"location"`
	Accuracy    string `json:"accuracy"`
}

// Geolocate answers a geolocation query.
func Geolocate(req GeoRequest) (*GeoResult, error) {
	if err := required("query", req.Query); err != nil {
		return nil, err
	}
	return &GeoResult{
		Query:       req.Query,
		Coordinates: "55.7558, 37.6176",
		Location:    "Moscow, Russia",
		Accuracy:    "City level",
	}, nil
}

// DocTypeNames are the display names of the known document types.
var DocTypeNames = map[string]string{
	"passport": "Паспорт РФ",
	"inn":      "ИНН",
	"snils":    "СНИЛС",
	"oms":      "ОМС",
}

// DocumentRequest is the input of the document verification.
type DocumentRequest struct {
	DocType   string `json:"docType"`
	DocNumber string `json:"docNumber"`
}

// DocumentResult is the canned document verification answer.
type DocumentResult struct {
	DocType     string `json:"docType"`
	DocTypeName string `json:"docTypeName,omitempty"`
	DocNumber   string `json:"docNumber"`
	Status      string `json:"status"`
	Region      string `json:"region"`
}

// VerifyDocument answers a document verification. Unknown document types
// are accepted and reported without a display name.
func VerifyDocument(req DocumentRequest) (*DocumentResult, error) {
	if err := required("docType", req.DocType); err != nil {
		return nil, err
	}
	if err := required("docNumber", req.DocNumber); err != nil {
		return nil, err
	}
	return &DocumentResult{
		DocType:     req.DocType,
		DocTypeName: DocTypeNames[strings.ToLower(req.DocType)],
		DocNumber:   req.DocNumber,
		Status:      "Valid format",
		Region:      "Example Region",
	}, nil
}
