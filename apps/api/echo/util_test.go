package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"

	. "github.com/trezcool/kozi/apps/api/echo"
	"github.com/trezcool/kozi/core"
	"github.com/trezcool/kozi/core/course"
	"github.com/trezcool/kozi/core/curriculum"
	"github.com/trezcool/kozi/services/email"
	"github.com/trezcool/kozi/services/logger"
	"github.com/trezcool/kozi/storage/database/inmem"
	"github.com/trezcool/kozi/testutil"
)

var errNotFound = httpErr{Error: "not found"}

type fixture struct {
	app    Server
	store  testutil.Store
	mailer *emailsvc.ConsoleService
}

func setup(t *testing.T) fixture {
	// set up DB & repos
	db := inmemdb.Open()
	store := testutil.Store{
		Curriculum: inmemdb.NewCurriculumRepository(db),
		Courses:    inmemdb.NewCourseRepository(db),
		Tx:         db,
	}

	// set up services
	conf := &core.Config{AppName: "Kozi", Email: core.EmailConfig{DefaultFromEmail: "noreply@kozi.test"}}
	logger := logsvc.NewNopLogger()
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)
	notifier := course.NewNotifier(mailer, conf, logger)
	translator := core.NewTranslator()

	// set up server
	app := NewServer(&Options{
		AppName:        conf.AppName,
		DisableReqLogs: true,
		Logger:         logger,
		Validate:       core.NewValidator(translator),
		Translator:     translator,
		Curriculum:     curriculum.NewService(store.Curriculum, store.Tx),
		Courses:        course.NewService(store.Courses, store.Curriculum, store.Tx, notifier),
	})
	return fixture{app: app, store: store, mailer: mailer}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func (f fixture) do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	f.app.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func unmarshallObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshallObj() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, f fixture, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func itoa(i int) string { return strconv.Itoa(i) }
