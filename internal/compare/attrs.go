package compare

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/usestring/reqmin/pkg/contenttype"
	"github.com/usestring/reqmin/pkg/rawhttp"
)

// Attribute identifiers.
const (
	AttrStatusCode              = "status_code"
	AttrStatusReason            = "status_reason"
	AttrContentType             = "content_type"
	AttrContentLength           = "content_length"
	AttrContentLocation         = "content_location"
	AttrLocation                = "location"
	AttrETagHeader              = "etag_header"
	AttrLastModifiedHeader      = "last_modified_header"
	AttrSetCookieNames          = "set_cookie_names"
	AttrHeaderNames             = "header_names"
	AttrWholeBodyContent        = "whole_body_content"
	AttrLimitedBodyContent      = "limited_body_content"
	AttrInitialBodyContent      = "initial_body_content"
	AttrLineCount               = "line_count"
	AttrWordCount               = "word_count"
	AttrVisibleText             = "visible_text"
	AttrVisibleWordCount        = "visible_word_count"
	AttrPageTitle               = "page_title"
	AttrTagNames                = "tag_names"
	AttrTagIDs                  = "tag_ids"
	AttrDivIDs                  = "div_ids"
	AttrCSSClasses              = "css_classes"
	AttrComments                = "comments"
	AttrFirstHeaderTag          = "first_header_tag"
	AttrHeaderTags              = "header_tags"
	AttrAnchorLabels            = "anchor_labels"
	AttrButtonSubmitLabels      = "button_submit_labels"
	AttrInputSubmitLabels       = "input_submit_labels"
	AttrInputImageLabels        = "input_image_labels"
	AttrNonHiddenFormInputTypes = "non_hidden_form_input_types"
	AttrCanonicalLink           = "canonical_link"
	AttrOutboundEdgeCount       = "outbound_edge_count"
	AttrOutboundEdgeTagNames    = "outbound_edge_tag_names"
)

// MarkerPrefix prefixes the attribute name of every body marker.
const MarkerPrefix = "marker:"

// Attributes lists the built-in attribute identifiers in registry order.
var Attributes = []string{
	AttrStatusCode,
	AttrStatusReason,
	AttrContentType,
	AttrContentLength,
	AttrContentLocation,
	AttrLocation,
	AttrETagHeader,
	AttrLastModifiedHeader,
	AttrSetCookieNames,
	AttrHeaderNames,
	AttrWholeBodyContent,
	AttrLimitedBodyContent,
	AttrInitialBodyContent,
	AttrLineCount,
	AttrWordCount,
	AttrVisibleText,
	AttrVisibleWordCount,
	AttrPageTitle,
	AttrTagNames,
	AttrTagIDs,
	AttrDivIDs,
	AttrCSSClasses,
	AttrComments,
	AttrFirstHeaderTag,
	AttrHeaderTags,
	AttrAnchorLabels,
	AttrButtonSubmitLabels,
	AttrInputSubmitLabels,
	AttrInputImageLabels,
	AttrNonHiddenFormInputTypes,
	AttrCanonicalLink,
	AttrOutboundEdgeCount,
	AttrOutboundEdgeTagNames,
}

// Fingerprint maps attribute identifiers to canonical values.
type Fingerprint map[string]string

// fingerprintResponse computes every built-in attribute of resp.
func fingerprintResponse(resp *rawhttp.Response) Fingerprint {
	fp := make(Fingerprint, len(Attributes))
	for _, name := range Attributes {
		fp[name] = ""
	}
	h := resp.Headers

	fp[AttrStatusCode] = strconv.Itoa(resp.StatusCode)
	fp[AttrStatusReason] = resp.Reason
	fp[AttrContentType] = h.Get("Content-Type")
	fp[AttrContentLength] = h.Get("Content-Length")
	fp[AttrContentLocation] = h.Get("Content-Location")
	fp[AttrLocation] = h.Get("Location")
	fp[AttrETagHeader] = h.Get("ETag")
	fp[AttrLastModifiedHeader] = h.Get("Last-Modified")
	fp[AttrSetCookieNames] = setCookieNames(h)
	fp[AttrHeaderNames] = headerNames(h)

	body := resp.Body
	fp[AttrWholeBodyContent] = hashBytes(body)
	fp[AttrLimitedBodyContent] = hashBytes(body[:min(len(body), limitedBodyBytes)])
	fp[AttrInitialBodyContent] = string(body[:min(len(body), initialBodyBytes)])
	fp[AttrLineCount] = strconv.Itoa(lineCount(body))
	fp[AttrWordCount] = strconv.Itoa(len(bytes.Fields(body)))

	if contenttype.IsHTML(h.Get("Content-Type")) {
		addHTMLAttributes(fp, body)
	} else {
		text := strings.Join(strings.Fields(string(body)), " ")
		fp[AttrVisibleText] = text
		fp[AttrVisibleWordCount] = strconv.Itoa(len(strings.Fields(text)))
	}

	return fp
}

// hashBytes returns the hex SHA-256 of b, or "" for an empty body.
func hashBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func lineCount(body []byte) int {
	if len(body) == 0 {
		return 0
	}
	return bytes.Count(body, []byte("\n")) + 1
}

func headerNames(h rawhttp.Headers) string {
	names := make([]string, 0, len(h))
	for _, pair := range h {
		if len(pair) >= 1 {
			names = append(names, strings.ToLower(pair[0]))
		}
	}
	slices.Sort(names)
	return strings.Join(slices.Compact(names), ",")
}

func setCookieNames(h rawhttp.Headers) string {
	var names []string
	for _, v := range h.Values("Set-Cookie") {
		name, _, _ := strings.Cut(v, "=")
		names = append(names, strings.TrimSpace(name))
	}
	slices.Sort(names)
	return strings.Join(names, ",")
}
