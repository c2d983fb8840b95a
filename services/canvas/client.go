// Package canvas is the HTTP client for the Canvas LMS REST API.
package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/uautonoma/actgen/core"
	"github.com/uautonoma/actgen/core/acta"
)

// linkNextRegex extracts the rel="next" URL from a Link response header.
var linkNextRegex = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

var errUnsupportedMethod = errors.New("unsupported HTTP method")

type Client struct {
	http     *http.Client
	baseURL  string
	token    string
	pageSize int
}

var _ acta.API = (*Client)(nil)

func NewClient(baseURL, token string) *Client {
	return &Client{
		http:     &http.Client{},
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		pageSize: core.Conf.GetInt("canvasPageSize"),
	}
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "encoding payload")
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do performs one call and returns the body; any non-2xx status is an error.
func (c *Client) do(req *http.Request) (data []byte, next string, err error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", errors.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}

	if m := linkNextRegex.FindStringSubmatch(resp.Header.Get("Link")); m != nil {
		next = m[1]
	}
	return data, next, nil
}

// Do issues a single (non-paginated) request and returns the raw body.
// Only GET, POST, PUT and DELETE are supported.
func (c *Client) Do(ctx context.Context, method, endpoint string, query url.Values, payload interface{}) (json.RawMessage, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, errors.Wrap(errUnsupportedMethod, method)
	}

	rawURL := c.baseURL + endpoint
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	req, err := c.newRequest(ctx, method, rawURL, payload)
	if err != nil {
		return nil, err
	}
	data, _, err := c.do(req)
	return data, err
}

// DoPaginated walks a paginated GET endpoint following the Link rel="next"
// relation and accumulates the items of every page. A failure anywhere in
// the walk fails the whole call; there are no partial results.
func (c *Client) DoPaginated(ctx context.Context, endpoint string, query url.Values) ([]json.RawMessage, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("per_page", strconv.Itoa(c.pageSize))
	rawURL := c.baseURL + endpoint + "?" + query.Encode()

	var items []json.RawMessage
	for rawURL != "" {
		req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		data, next, err := c.do(req)
		if err != nil {
			return nil, err
		}
		var page []json.RawMessage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, errors.Wrapf(err, "decoding page %s", endpoint)
		}
		items = append(items, page...)
		rawURL = next
	}
	return items, nil
}

func getOne[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	var out T
	data, err := c.Do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, errors.Wrapf(err, "decoding %s", endpoint)
	}
	return out, nil
}

func listAll[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	items, err := c.DoPaginated(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, errors.Wrapf(err, "decoding %s item", endpoint)
		}
		out = append(out, v)
	}
	return out, nil
}

// Wire shapes; grades arrive as quoted strings when present.
type (
	wireEnrollment struct {
		Type      string `json:"type"`
		SISUserID string `json:"sis_user_id"`
		User      struct {
			SortableName string `json:"sortable_name"`
			LoginID      string `json:"login_id"`
		} `json:"user"`
		Grades struct {
			FinalGrade   looseFloat `json:"final_grade"`
			CurrentGrade looseFloat `json:"current_grade"`
		} `json:"grades"`
	}

	wireUser struct {
		ID        int    `json:"id"`
		SISUserID string `json:"sis_user_id"`
	}

	wireAssignment struct {
		ID             int      `json:"id"`
		Name           string   `json:"name"`
		PointsPossible *float64 `json:"points_possible"`
		GradingType    string   `json:"grading_type"`
	}

	wireSubmission struct {
		AssignmentID                  int      `json:"assignment_id"`
		UserID                        int      `json:"user_id"`
		Score                         *float64 `json:"score"`
		GradeMatchesCurrentSubmission bool     `json:"grade_matches_current_submission"`
	}
)

// looseFloat absorbs grades sent as "5.4", 5.4 or null; anything that does
// not parse is treated as a missing grade, never a decode failure.
type looseFloat struct {
	val *float64
}

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		f.val = &v
	}
	return nil
}

func (c *Client) GetCourse(ctx context.Context, courseID string) (acta.CourseRef, error) {
	return getOne[acta.CourseRef](ctx, c, "/courses/"+courseID)
}

func (c *Client) GetAccount(ctx context.Context, accountID int) (acta.Account, error) {
	return getOne[acta.Account](ctx, c, fmt.Sprintf("/accounts/%d", accountID))
}

func (c *Client) ListActiveEnrollments(ctx context.Context, courseID string) ([]acta.Enrollment, error) {
	query := url.Values{}
	query.Set("type[]", "StudentEnrollment")
	query.Set("state[]", "active")
	wires, err := listAll[wireEnrollment](ctx, c, "/courses/"+courseID+"/enrollments", query)
	if err != nil {
		return nil, err
	}

	enrollments := make([]acta.Enrollment, 0, len(wires))
	for _, w := range wires {
		if w.Type != "StudentEnrollment" {
			continue
		}
		last, first := acta.SplitSortableName(w.User.SortableName)
		enrollments = append(enrollments, acta.Enrollment{
			SISUserID: w.SISUserID,
			First:     first,
			Last:      last,
			Email:     w.User.LoginID,
			Final:     w.Grades.FinalGrade.val,
			Current:   w.Grades.CurrentGrade.val,
		})
	}
	return enrollments, nil
}

func (c *Client) ListStudents(ctx context.Context, courseID string) ([]acta.CourseUser, error) {
	query := url.Values{}
	query.Set("enrollment_type[]", "student")
	wires, err := listAll[wireUser](ctx, c, "/courses/"+courseID+"/users", query)
	if err != nil {
		return nil, err
	}

	users := make([]acta.CourseUser, 0, len(wires))
	for _, w := range wires {
		users = append(users, acta.CourseUser{ID: w.ID, SISUserID: w.SISUserID})
	}
	return users, nil
}

func (c *Client) ListAssignments(ctx context.Context, courseID string) ([]acta.Assignment, error) {
	wires, err := listAll[wireAssignment](ctx, c, "/courses/"+courseID+"/assignments", nil)
	if err != nil {
		return nil, err
	}

	assignments := make([]acta.Assignment, 0, len(wires))
	for _, w := range wires {
		assignments = append(assignments, acta.Assignment(w))
	}
	return assignments, nil
}

func (c *Client) ListSubmissions(ctx context.Context, courseID string, assignmentID int) ([]acta.Submission, error) {
	endpoint := fmt.Sprintf("/courses/%s/assignments/%d/submissions", courseID, assignmentID)
	wires, err := listAll[wireSubmission](ctx, c, endpoint, nil)
	if err != nil {
		return nil, err
	}

	submissions := make([]acta.Submission, 0, len(wires))
	for _, w := range wires {
		submissions = append(submissions, acta.Submission(w))
	}
	return submissions, nil
}
