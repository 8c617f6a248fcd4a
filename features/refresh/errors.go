package refresh

import (
	"errors"
	"strconv"
)

var (
	ErrFetch             = errors.New("fetch failed")
	ErrHTMLInsteadOfCSV  = errors.New("received HTML instead of CSV file")
	ErrUnmanagedListType = errors.New("downloaded list of unmanaged type")
	ErrAllFailed         = errors.New("every list download failed")
)

// FetchError describes an HTTP request that did not return 200.
type FetchError struct {
	Purpose    string
	Method     string
	URL        string
	Reason     string
	Status     int
	StatusText string
}

func (e *FetchError) Error() string {
	m := e.Purpose + " - HTTP " + e.Method + " error"
	if e.Reason != "" {
		m += " (" + e.Reason + ")"
	}
	m += ": " + strconv.Itoa(e.Status)
	if e.StatusText != "" {
		m += " - " + e.StatusText
	}
	return m
}

func (e *FetchError) Unwrap() error {
	return ErrFetch
}

// UnmanagedTypeError is returned for list kinds the parser cannot read.
type UnmanagedTypeError struct {
	Kind string
}

func (e *UnmanagedTypeError) Error() string {
	return "downloaded list of unmanaged type " + e.Kind + ", discarded"
}

func (e *UnmanagedTypeError) Unwrap() error {
	return ErrUnmanagedListType
}

// SummaryError is returned when no list at all could be downloaded.
type SummaryError struct {
	Site    string
	Details string
}

func (e *SummaryError) Error() string {
	return "Error - It was not possible to download the " + e.Site + " lists:" + e.Details
}

func (e *SummaryError) Unwrap() error {
	return ErrAllFailed
}
