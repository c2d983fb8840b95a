package canvas

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "test-token"), srv
}

func TestDoSetsBearerToken(t *testing.T) {
	var gotAuth string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"id": 1}`)
	}))
	defer srv.Close()

	_, err := client.Do(context.Background(), http.MethodGet, "/courses/1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestDoRejectsUnsupportedMethod(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := client.Do(context.Background(), "PATCH", "/courses/1", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported HTTP method")
}

func TestDoFailsOnNonSuccessStatus(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := client.Do(context.Background(), http.MethodGet, "/courses/99", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDoPaginatedFollowsNextLinks(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/items?page=2>; rel="next", <%s/items?page=1>; rel="first"`, srv.URL, srv.URL))
			fmt.Fprint(w, `[{"id":1},{"id":2}]`)
		case "2":
			w.Header().Set("Link", fmt.Sprintf(`<%s/items?page=3>; rel="next"`, srv.URL))
			fmt.Fprint(w, `[{"id":3}]`)
		default: // last page: no next link
			fmt.Fprint(w, `[{"id":4}]`)
		}
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()
	client := NewClient(srv.URL, "t")

	items, err := client.DoPaginated(context.Background(), "/items", nil)
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestDoPaginatedAbortsWholeWalkOnFailure(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/items?page=2>; rel="next"`, srv.URL))
		fmt.Fprint(w, `[{"id":1}]`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()
	client := NewClient(srv.URL, "t")

	items, err := client.DoPaginated(context.Background(), "/items", nil)
	require.Error(t, err)
	assert.Nil(t, items) // no partial results
}

func TestDoPaginatedSetsPageSize(t *testing.T) {
	var perPage string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("per_page")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	_, err := client.DoPaginated(context.Background(), "/items", url.Values{})
	require.NoError(t, err)
	assert.Equal(t, "100", perPage)
}

func TestListActiveEnrollments(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courses/7/enrollments", r.URL.Path)
		assert.Equal(t, "StudentEnrollment", r.URL.Query().Get("type[]"))
		assert.Equal(t, "active", r.URL.Query().Get("state[]"))
		fmt.Fprint(w, `[
			{"type":"StudentEnrollment","sis_user_id":"193745040",
			 "user":{"sortable_name":"Soto, Ana","login_id":"ana@example.cl"},
			 "grades":{"final_grade":"5.5","current_grade":"5.5"}},
			{"type":"StudentEnrollment","sis_user_id":"12345K",
			 "user":{"sortable_name":"Beto Rojas","login_id":"beto@example.cl"},
			 "grades":{"final_grade":null,"current_grade":"garbage"}},
			{"type":"TeacherEnrollment","sis_user_id":"T1",
			 "user":{"sortable_name":"Prof, X","login_id":"x@example.cl"},
			 "grades":{}}
		]`)
	}))
	defer srv.Close()

	enrollments, err := client.ListActiveEnrollments(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, enrollments, 2) // teacher enrollment filtered out

	ana := enrollments[0]
	assert.Equal(t, "Ana", ana.First)
	assert.Equal(t, "Soto", ana.Last)
	assert.Equal(t, "ana@example.cl", ana.Email)
	require.NotNil(t, ana.Final)
	assert.Equal(t, 5.5, *ana.Final)

	beto := enrollments[1]
	assert.Empty(t, beto.First) // no comma in sortable name
	assert.Empty(t, beto.Last)
	assert.Nil(t, beto.Final)   // null grade
	assert.Nil(t, beto.Current) // unparseable grade is missing, not an error
}

func TestListAssignmentsAndSubmissions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courses/7/assignments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":11,"name":"Ensayo","points_possible":10,"grading_type":"points"},
			{"id":12,"name":"Foro","points_possible":null,"grading_type":"not_graded"}]`)
	})
	mux.HandleFunc("/courses/7/assignments/11/submissions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"assignment_id":11,"user_id":1,"score":6.0,"grade_matches_current_submission":true},
			{"assignment_id":11,"user_id":2,"score":null,"grade_matches_current_submission":false}]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	client := NewClient(srv.URL, "t")

	assignments, err := client.ListAssignments(context.Background(), "7")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "Ensayo", assignments[0].Name)
	assert.Nil(t, assignments[1].PointsPossible)

	submissions, err := client.ListSubmissions(context.Background(), "7", 11)
	require.NoError(t, err)
	require.Len(t, submissions, 2)
	assert.Equal(t, 6.0, *submissions[0].Score)
	assert.Nil(t, submissions[1].Score)
	assert.False(t, submissions[1].GradeMatchesCurrentSubmission)
}

func TestGetCourseAndAccount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courses/101", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":101,"account_id":7,"name":"Curso Uno","course_code":"ADB-MDIR2025-C1-1","sis_course_id":"ADB-MDIR2025-C1-1"}`)
	})
	mux.HandleFunc("/accounts/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":7,"name":"Magister en Dirección"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	client := NewClient(srv.URL, "t")

	course, err := client.GetCourse(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, "ADB-MDIR2025-C1-1", course.SISCourseID)
	assert.Equal(t, 7, course.AccountID)

	account, err := client.GetAccount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Magister en Dirección", account.Name)
}
