package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/config"
	"github.com/mkoziy/civic/exporter/internal/database/dbtest"
	"github.com/mkoziy/civic/exporter/internal/events"
	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/ratelimit"
	"github.com/mkoziy/civic/exporter/internal/repositories"
	"github.com/mkoziy/civic/exporter/internal/source"
)

// upstream serves mutable bodies per path.
type upstream struct {
	mu     sync.Mutex
	bodies map[string][]byte
	status map[string]int
}

func newUpstream(t *testing.T) (*upstream, *httptest.Server) {
	u := &upstream{bodies: map[string][]byte{}, status: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		if code, ok := u.status[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		body, ok := u.bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return u, srv
}

func (u *upstream) set(path, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bodies[path] = []byte(body)
	delete(u.status, path)
}

func (u *upstream) setBytes(path string, body []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bodies[path] = body
}

func (u *upstream) fail(path string, code int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status[path] = code
}

func fastLimits() ratelimit.Config {
	return ratelimit.Config{
		Strategy:       ratelimit.StrategyNone,
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.ResourceChanged
}

func (n *recordingNotifier) ResourceChanged(_ context.Context, ev events.ResourceChanged) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

type fixture struct {
	db       *bun.DB
	up       *upstream
	orch     *Orchestrator
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	up, srv := newUpstream(t)

	cfgs := map[string]config.Dataset{
		"deputes": {
			URL:       srv.URL + "/deputes.json",
			Format:    parse.Config{Kind: parse.KindJSON, Field: "deputes", Unwrap: "depute"},
			RateLimit: fastLimits(),
		},
		"senateurs": {
			URL:       srv.URL + "/senateurs.zip",
			Format:    parse.Config{Kind: parse.KindArchive, RecordElement: "senateur"},
			RateLimit: fastLimits(),
		},
		"maires": {
			URL:       srv.URL + "/maires.csv",
			Format:    parse.Config{Kind: parse.KindDelimited, Delimiter: ";"},
			RateLimit: fastLimits(),
		},
		"communes": {
			URL:       srv.URL + "/communes.json",
			Format:    parse.Config{Kind: parse.KindJSON},
			RateLimit: fastLimits(),
		},
		"scrutins": {
			URL:       srv.URL + "/scrutins.zip",
			Format:    parse.Config{Kind: parse.KindArchive},
			RateLimit: fastLimits(),
		},
	}
	registry, err := RegistryFromConfig(cfgs)
	if err != nil {
		t.Fatalf("RegistryFromConfig() error: %v", err)
	}
	fetcher := source.NewFetcher(source.Options{Timeout: 5 * time.Second, ScratchDir: t.TempDir()})
	notifier := &recordingNotifier{}
	return &fixture{
		db:       db,
		up:       up,
		orch:     NewOrchestrator(db, fetcher, registry, WithNotifier(notifier)),
		notifier: notifier,
	}
}

const threeDeputies = `{"deputes":[
  {"depute":{"slug":"alice-martin","nom_de_famille":"Martin","prenom":"Alice","groupe_sigle":"ABC","mandat_debut":"2022-06-22"}},
  {"depute":{"slug":"bruno-petit","nom_de_famille":"Petit","prenom":"Bruno","groupe_sigle":"ABC","mandat_debut":"2022-06-22"}},
  {"depute":{"slug":"chloe-roux","nom_de_famille":"Roux","prenom":"Chloé","groupe_sigle":"ABC","mandat_debut":"2022-06-22","mandat_fin":"2024-01-10"}}
]}`

func groupCount(t *testing.T, db bun.IDB, chamber models.Chamber, acronym string) int {
	t.Helper()
	groups, err := repositories.GroupCounts(context.Background(), db, chamber)
	if err != nil {
		t.Fatalf("GroupCounts() error: %v", err)
	}
	for _, g := range groups {
		if g.Acronym == acronym {
			return g.MemberCount
		}
	}
	t.Fatalf("group %s not found", acronym)
	return 0
}

func countRows(t *testing.T, db bun.IDB, model interface{}) int {
	t.Helper()
	n, err := db.NewSelect().Model(model).Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestThreeDeputiesScenarioAndIdempotence(t *testing.T) {
	f := newFixture(t)
	f.up.set("/deputes.json", threeDeputies)
	ctx := context.Background()

	summary, err := f.orch.Run(ctx, models.DatasetDeputies)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	res := summary.Results[0]
	if res.Status != models.JobCompleted {
		t.Fatalf("status = %s, error %q", res.Status, res.Error)
	}
	if res.Counts != (Counts{Seen: 3, Created: 3}) {
		t.Fatalf("first run counts = %+v", res.Counts)
	}
	if len(res.Groups) != 1 || res.Groups[0].Acronym != "ABC" || res.Groups[0].MemberCount != 2 {
		t.Fatalf("groups = %+v, want ABC with 2 members", res.Groups)
	}

	summary, err = f.orch.Run(ctx, models.DatasetDeputies)
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	res = summary.Results[0]
	if res.Counts != (Counts{Seen: 3, Updated: 3}) {
		t.Fatalf("second run counts = %+v, want 3 updated", res.Counts)
	}
	if n := countRows(t, f.db, (*models.Official)(nil)); n != 3 {
		t.Fatalf("officials = %d, want 3", n)
	}
	if n := countRows(t, f.db, (*models.PoliticalGroup)(nil)); n != 1 {
		t.Fatalf("groups = %d, want 1", n)
	}
	if got := groupCount(t, f.db, models.ChamberAssembly, "ABC"); got != 2 {
		t.Fatalf("member_count = %d, want 2", got)
	}

	jobs, err := repositories.JobHistory(ctx, f.db, models.DatasetDeputies, 10)
	if err != nil {
		t.Fatalf("JobHistory() error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	for _, j := range jobs {
		if j.Status != models.JobCompleted || j.FinishedAt == nil || j.DurationMs == nil {
			t.Errorf("job %d not properly finished: %+v", j.ID, j)
		}
	}
	if jobs[0].RecordsUpdated != 3 || jobs[1].RecordsCreated != 3 {
		t.Errorf("persisted counters do not match: %+v / %+v", jobs[0], jobs[1])
	}

	if len(f.notifier.events) != 2 || f.notifier.events[0].Resource != "officials" {
		t.Errorf("notifications = %+v", f.notifier.events)
	}
}

func TestPerRecordIsolation(t *testing.T) {
	f := newFixture(t)
	f.up.set("/deputes.json", `{"deputes":[
	  {"depute":{"slug":"alice-martin","nom_de_famille":"Martin","prenom":"Alice"}},
	  {"depute":{"slug":"sans-nom"}},
	  "not an object",
	  {"depute":{"slug":"bruno-petit","nom_de_famille":"Petit","prenom":"Bruno"}}
	]}`)

	summary, err := f.orch.Run(context.Background(), models.DatasetDeputies)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	res := summary.Results[0]
	if res.Status != models.JobCompleted {
		t.Fatalf("partial failures must still complete, got %s (%s)", res.Status, res.Error)
	}
	if res.Counts != (Counts{Seen: 4, Created: 2, Failed: 2}) {
		t.Fatalf("counts = %+v", res.Counts)
	}
	if summary.Failed() {
		t.Fatal("summary should not be failed")
	}
}

func TestFetchFailureIsFatalAndOthersContinue(t *testing.T) {
	f := newFixture(t)
	f.up.fail("/deputes.json", http.StatusInternalServerError)
	f.up.set("/communes.json", `[{"code":"01001","nom":"L'Abergement-Clémenciat","codesPostaux":["01400"],"population":859}]`)

	summary, err := f.orch.Run(context.Background(), models.DatasetDeputies, models.DatasetCommunes)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !summary.Failed() {
		t.Fatal("expected failed summary")
	}
	dep, com := summary.Results[0], summary.Results[1]
	if dep.Status != models.JobFailed || dep.Error == "" {
		t.Fatalf("deputes = %+v, want FAILED with error", dep)
	}
	if com.Status != models.JobCompleted || com.Created != 1 {
		t.Fatalf("communes = %+v, want COMPLETED with 1 created", com)
	}
	if n := countRows(t, f.db, (*models.Official)(nil)); n != 0 {
		t.Fatalf("officials = %d, want none after fatal fetch", n)
	}

	job, err := repositories.GetJob(context.Background(), f.db, dep.JobID)
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if job.Status != models.JobFailed || job.ErrorMessage == nil {
		t.Fatalf("job = %+v, want FAILED with message", job)
	}
	if summary.Created != 1 || summary.Seen != 1 {
		t.Fatalf("totals = %+v", summary.Counts)
	}
}

func TestParseErrorFailsRunWithoutWrites(t *testing.T) {
	f := newFixture(t)
	f.up.set("/deputes.json", `{"autre":[]}`)

	summary, err := f.orch.Run(context.Background(), models.DatasetDeputies)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Results[0].Status != models.JobFailed {
		t.Fatalf("status = %s, want FAILED", summary.Results[0].Status)
	}
	if n := countRows(t, f.db, (*models.PoliticalGroup)(nil)); n != 0 {
		t.Fatalf("groups = %d, want 0", n)
	}
}

func TestEmptyUpstreamCompletesWithZeroCounts(t *testing.T) {
	f := newFixture(t)
	f.up.set("/deputes.json", "")

	summary, err := f.orch.Run(context.Background(), models.DatasetDeputies)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	res := summary.Results[0]
	if res.Status != models.JobCompleted || res.Counts != (Counts{}) {
		t.Fatalf("result = %+v", res)
	}
	if len(f.notifier.events) != 0 {
		t.Fatal("no notification expected without writes")
	}
}

func TestNaturalKeyStabilityAndAggregateMove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.up.set("/deputes.json", threeDeputies)
	if _, err := f.orch.Run(ctx, models.DatasetDeputies); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	var before models.Official
	if err := f.db.NewSelect().Model(&before).Where("slug = ?", "alice-martin").Scan(ctx); err != nil {
		t.Fatalf("select: %v", err)
	}

	f.up.set("/deputes.json", `{"deputes":[
	  {"depute":{"slug":"alice-martin","nom_de_famille":"Martin-Leroy","prenom":"Alice","groupe_sigle":"XYZ"}},
	  {"depute":{"slug":"bruno-petit","nom_de_famille":"Petit","prenom":"Bruno","groupe_sigle":"ABC"}}
	]}`)
	summary, err := f.orch.Run(ctx, models.DatasetDeputies)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res := summary.Results[0]; res.Counts != (Counts{Seen: 2, Updated: 2}) {
		t.Fatalf("counts = %+v", res.Counts)
	}

	var after models.Official
	if err := f.db.NewSelect().Model(&after).Where("slug = ?", "alice-martin").Scan(ctx); err != nil {
		t.Fatalf("select: %v", err)
	}
	if after.ID != before.ID || after.LastName != "Martin-Leroy" {
		t.Fatalf("row not replaced in place: before %d, after %d %q", before.ID, after.ID, after.LastName)
	}
	if n := countRows(t, f.db, (*models.Official)(nil)); n != 3 {
		t.Fatalf("officials = %d, entities are never retired", n)
	}
	if got := groupCount(t, f.db, models.ChamberAssembly, "ABC"); got != 1 {
		t.Errorf("ABC member_count = %d, want 1", got)
	}
	if got := groupCount(t, f.db, models.ChamberAssembly, "XYZ"); got != 1 {
		t.Errorf("XYZ member_count = %d, want 1", got)
	}
}

func zipOf(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestSenatorsFromArchive(t *testing.T) {
	f := newFixture(t)
	f.up.setBytes("/senateurs.zip", zipOf(t, map[string]string{
		"ODSEN/senateurs.xml": `<?xml version="1.0" encoding="UTF-8"?>
<senateurs>
  <senateur matricule="19001A"><nom>Durand</nom><prenom>Élise</prenom><groupe sigle="ABC">Groupe ABC</groupe></senateur>
  <senateur matricule="19002B"><nom>Petit</nom><prenom>Marc</prenom><groupe sigle="ABC">Groupe ABC</groupe><mandat><fin>2023-09-30</fin></mandat></senateur>
  <senateur matricule="19003C"><prenom>Sans</prenom></senateur>
</senateurs>`,
		"ODSEN/broken.xml": `<senateurs><senateur>`,
	}))

	summary, err := f.orch.Run(context.Background(), models.DatasetSenators)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	res := summary.Results[0]
	if res.Status != models.JobCompleted {
		t.Fatalf("status = %s (%s)", res.Status, res.Error)
	}
	if res.Counts != (Counts{Seen: 4, Created: 2, Failed: 2}) {
		t.Fatalf("counts = %+v", res.Counts)
	}
	if got := groupCount(t, f.db, models.ChamberSenate, "ABC"); got != 1 {
		t.Fatalf("senate ABC member_count = %d, want 1", got)
	}
}

func TestMunicipalOfficersFromCSV(t *testing.T) {
	f := newFixture(t)
	f.up.set("/maires.csv", "\ufeffCode du département;Code de la commune;Libellé de la commune;Nom de l'élu;Prénom de l'élu;Date de naissance;Libellé de la fonction\n"+
		"01;01001;L'Abergement-Clémenciat;DUPONT;Hélène;02/03/1960;Maire\n"+
		"01;01002;L'Abergement-de-Varey;MARTIN\n"+
		"01;01004;Ambérieu-en-Bugey;LEROY;Paul;;Maire\n")

	summary, err := f.orch.Run(context.Background(), models.DatasetMunicipalOfficers)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	res := summary.Results[0]
	if res.Counts != (Counts{Seen: 3, Created: 2, Failed: 1}) {
		t.Fatalf("counts = %+v", res.Counts)
	}
	var leroy models.MunicipalOfficer
	if err := f.db.NewSelect().Model(&leroy).Where("commune_code = ?", "01004").Scan(context.Background()); err != nil {
		t.Fatalf("select: %v", err)
	}
	if leroy.Identity != "leroy-paul-unknown" || leroy.BirthDate != nil {
		t.Fatalf("unexpected officer %+v", leroy)
	}
}

func TestVotesFromArchiveOfJSON(t *testing.T) {
	f := newFixture(t)
	f.up.setBytes("/scrutins.zip", zipOf(t, map[string]string{
		"json/VTANR5L17V1.json": `{"scrutin":{"uid":"VTANR5L17V1","numero":"1","legislature":"17",
			"dateScrutin":"2024-10-01","titre":"l'ensemble du projet de loi","sort":{"code":"Adopté"},
			"syntheseVote":{"decompte":{"pour":"120","contre":"30","abstentions":"4","nonVotants":"0"}}}}`,
		"json/VTANR5L17V2.json": `{"scrutin":{"numero":"2","titre":"sans identifiant"}}`,
	}))
	ctx := context.Background()

	summary, err := f.orch.Run(ctx, models.DatasetVotes)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	res := summary.Results[0]
	if res.Status != models.JobCompleted {
		t.Fatalf("status = %s (%s)", res.Status, res.Error)
	}
	if res.Counts != (Counts{Seen: 2, Created: 1, Failed: 1}) {
		t.Fatalf("counts = %+v", res.Counts)
	}
	if len(res.Groups) != 0 {
		t.Fatalf("votes have no group aggregate, got %+v", res.Groups)
	}

	var v models.Vote
	if err := f.db.NewSelect().Model(&v).Where("uid = ?", "VTANR5L17V1").Scan(ctx); err != nil {
		t.Fatalf("select vote: %v", err)
	}
	if v.Chamber != models.ChamberAssembly || v.Number == nil || *v.Number != 1 {
		t.Fatalf("unexpected vote %+v", v)
	}
	if v.Outcome == nil || *v.Outcome != "adopté" || v.For == nil || *v.For != 120 || v.NonVoting == nil || *v.NonVoting != 0 {
		t.Fatalf("unexpected tally %+v", v)
	}
	if v.Date == nil || v.Date.Format("2006-01-02") != "2024-10-01" {
		t.Fatalf("Date = %v", v.Date)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Resource != "votes" {
		t.Fatalf("notifications = %+v", f.notifier.events)
	}

	summary, err = f.orch.Run(ctx, models.DatasetVotes)
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if got := summary.Results[0].Counts; got != (Counts{Seen: 2, Updated: 1, Failed: 1}) {
		t.Fatalf("second run counts = %+v", got)
	}
}

func TestRecountFailureFailsRunAndKeepsRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.db.ExecContext(ctx, `
		CREATE TRIGGER block_member_count BEFORE UPDATE OF member_count ON political_groups
		BEGIN SELECT RAISE(ABORT, 'member_count is read-only'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	f.up.set("/deputes.json", threeDeputies)

	summary, err := f.orch.Run(ctx, models.DatasetDeputies)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !summary.Failed() {
		t.Fatal("expected failed summary")
	}
	res := summary.Results[0]
	if res.Status != models.JobFailed || res.Error == "" {
		t.Fatalf("result = %+v, want FAILED with error", res)
	}
	if res.Counts != (Counts{Seen: 3, Created: 3}) {
		t.Fatalf("counts = %+v, upserts precede the recount", res.Counts)
	}

	job, err := repositories.GetJob(ctx, f.db, res.JobID)
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if job.Status != models.JobFailed || job.ErrorMessage == nil {
		t.Fatalf("job = %+v, want FAILED with message", job)
	}
	if !strings.Contains(*job.ErrorMessage, "recount") {
		t.Fatalf("error message %q does not name the recount", *job.ErrorMessage)
	}
	if job.RecordsCreated != 3 {
		t.Fatalf("persisted created = %d, want 3", job.RecordsCreated)
	}
	if n := countRows(t, f.db, (*models.Official)(nil)); n != 3 {
		t.Fatalf("officials = %d, entity rows must survive a failed recount", n)
	}
	if got := groupCount(t, f.db, models.ChamberAssembly, "ABC"); got != 0 {
		t.Fatalf("member_count = %d, want the stale 0", got)
	}
}

func TestAlreadyRunning(t *testing.T) {
	f := newFixture(t)
	if err := f.orch.acquire([]models.DatasetType{models.DatasetDeputies}); err != nil {
		t.Fatalf("acquire() error: %v", err)
	}
	_, err := f.orch.Run(context.Background(), models.DatasetDeputies)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Run() = %v, want ErrAlreadyRunning", err)
	}
	f.orch.release([]models.DatasetType{models.DatasetDeputies})

	f.up.set("/deputes.json", "")
	if _, err := f.orch.Run(context.Background(), models.DatasetDeputies); err != nil {
		t.Fatalf("Run() after release error: %v", err)
	}
}

func TestUnknownDataset(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Run(context.Background(), models.DatasetType("ministres"))
	if !errors.Is(err, source.ErrUnknownDataset) {
		t.Fatalf("Run() = %v, want ErrUnknownDataset", err)
	}
}

func TestCancelledRunFails(t *testing.T) {
	f := newFixture(t)
	f.up.set("/deputes.json", threeDeputies)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.orch.Run(ctx, models.DatasetDeputies)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	res := summary.Results[0]
	if res.Status != models.JobFailed {
		t.Fatalf("status = %s, want FAILED", res.Status)
	}
	job, err := repositories.GetJob(context.Background(), f.db, res.JobID)
	if err != nil {
		t.Fatalf("GetJob() error: %v", err)
	}
	if job.Status != models.JobFailed {
		t.Fatalf("persisted status = %s, want FAILED", job.Status)
	}
}

func TestTrackerSingleTerminalWrite(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	tr, err := OpenJob(ctx, db, models.DatasetCommunes, "run-x")
	if err != nil {
		t.Fatalf("OpenJob() error: %v", err)
	}
	if tr.Job().Status != models.JobRunning {
		t.Fatalf("status = %s", tr.Job().Status)
	}
	if err := tr.Complete(ctx, Counts{Seen: 1, Created: 1}); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if err := tr.Fail(ctx, Counts{}, errors.New("late")); !errors.Is(err, ErrJobFinished) {
		t.Fatalf("Fail() after Complete = %v, want ErrJobFinished", err)
	}
	if err := tr.Complete(ctx, Counts{}); !errors.Is(err, ErrJobFinished) {
		t.Fatalf("Complete() twice = %v, want ErrJobFinished", err)
	}
}

func TestCountsFold(t *testing.T) {
	var c Counts
	c.Fold(RecordResult{Outcome: repositories.Created})
	c.Fold(RecordResult{Outcome: repositories.Updated})
	c.Fold(RecordResult{Failure: &RecordFailure{Kind: FailureMapping, Err: errors.New("x")}})
	if c != (Counts{Seen: 3, Created: 1, Updated: 1, Failed: 1}) {
		t.Fatalf("counts = %+v", c)
	}
	if c.Seen != c.Created+c.Updated+c.Failed {
		t.Fatal("seen must equal the sum of outcomes")
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(&source.FetchError{Err: errors.New("x")}) || !IsFatal(&parse.ParseError{Err: errors.New("x")}) {
		t.Fatal("fetch and parse errors are fatal")
	}
	if !IsFatal(&RecountError{Err: errors.New("x")}) || !IsFatal(context.Canceled) {
		t.Fatal("recount and cancellation are fatal")
	}
	if IsFatal(&RecordFailure{Kind: FailureMapping, Err: errors.New("x")}) {
		t.Fatal("record failures are not fatal")
	}
}
