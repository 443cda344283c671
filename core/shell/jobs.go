package shell

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"josephlewis.net/vsh/core/vos"
)

// JobState is the lifecycle of a job. Done is terminal.
type JobState int

const (
	JobRunning JobState = iota
	JobStopped
	JobDone
)

func (s JobState) String() string {
	switch s {
	case JobRunning:
		return "Running"
	case JobStopped:
		return "Stopped"
	case JobDone:
		return "Done"
	default:
		return fmt.Sprintf("JobState(%d)", int(s))
	}
}

// Job is one tracked pipeline: its process handles, state and the
// command text used in listings. The exit status of a job is the exit
// status of its last stage.
type Job struct {
	ID         int
	Procs      []*vos.Proc
	State      JobState
	Background bool
	Text       string

	closers  []io.Closer
	exitCode int
}

// AddCloser registers a stream to tear down when the job is killed,
// unblocking stages parked on pipe I/O.
func (j *Job) AddCloser(c io.Closer) {
	j.closers = append(j.closers, c)
}

// Wait blocks until every stage finishes and returns the job's exit
// status. Safe to call on an already Done job.
func (j *Job) Wait() int {
	for _, proc := range j.Procs {
		j.exitCode = proc.Wait()
	}
	j.State = JobDone
	return j.exitCode
}

// Poll promotes the job to Done once every stage has exited, without
// blocking. Returns the current state.
func (j *Job) Poll() JobState {
	if j.State == JobDone {
		return j.State
	}
	for _, proc := range j.Procs {
		state, code := proc.Poll()
		if state != vos.StateExited {
			return j.State
		}
		j.exitCode = code
	}
	j.State = JobDone
	return j.State
}

// Kill delivers a terminal signal to every stage and closes the job's
// pipes so blocked reads and writes fall through.
func (j *Job) Kill() {
	for _, proc := range j.Procs {
		proc.Signal(vos.SigTerm)
	}
	for _, c := range j.closers {
		c.Close()
	}
}

// Stop suspends every running stage.
func (j *Job) Stop() {
	if j.State == JobDone {
		return
	}
	for _, proc := range j.Procs {
		proc.Signal(vos.SigStop)
	}
	j.State = JobStopped
}

// Continue resumes a stopped job.
func (j *Job) Continue() {
	if j.State != JobStopped {
		return
	}
	for _, proc := range j.Procs {
		proc.Signal(vos.SigCont)
	}
	j.State = JobRunning
}

// closeStreams releases the job's registered streams after a normal
// completion.
func (j *Job) closeStreams() {
	for _, c := range j.closers {
		c.Close()
	}
}

// JobManager owns the session's job table and the current/previous
// markers. Only the interpreter loop mutates it.
type JobManager struct {
	jobs     map[int]*Job
	current  int
	previous int
}

func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[int]*Job)}
}

// Add enters a job into the table, assigning the next free ID: one
// past the highest active ID, so numbers are reused only after
// removal.
func (m *JobManager) Add(job *Job) int {
	id := 1
	for existing := range m.jobs {
		if existing >= id {
			id = existing + 1
		}
	}
	job.ID = id
	m.jobs[id] = job

	if m.current != 0 && m.current != id {
		m.previous = m.current
	}
	m.current = id
	return id
}

// Remove drops a job and repairs the current/previous markers.
func (m *JobManager) Remove(id int) {
	delete(m.jobs, id)
	if m.previous == id {
		m.previous = 0
	}
	if m.current == id {
		m.current = m.previous
		m.previous = 0
	}
	if m.previous == 0 {
		for candidate := range m.jobs {
			if candidate != m.current && candidate > m.previous {
				m.previous = candidate
			}
		}
	}
}

// Jobs returns the active jobs ordered by ID.
func (m *JobManager) Jobs() []*Job {
	out := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count reports the number of active jobs.
func (m *JobManager) Count() int { return len(m.jobs) }

// Current returns the current job, nil when the table is empty.
func (m *JobManager) Current() *Job { return m.jobs[m.current] }

// Find resolves a job spec: %n or n by number, %% and %+ the current
// job, %- the previous, %text a command prefix match.
func (m *JobManager) Find(spec string) (*Job, error) {
	ref := strings.TrimPrefix(spec, "%")
	switch ref {
	case "", "%", "+":
		if job := m.jobs[m.current]; job != nil {
			return job, nil
		}
		return nil, &JobError{Spec: spec, Msg: "no current job"}
	case "-":
		if job := m.jobs[m.previous]; job != nil {
			return job, nil
		}
		return nil, &JobError{Spec: spec, Msg: "no previous job"}
	}

	if id, err := strconv.Atoi(ref); err == nil {
		if job := m.jobs[id]; job != nil {
			return job, nil
		}
		return nil, &JobError{Spec: spec, Msg: "no such job"}
	}

	var found *Job
	for _, job := range m.Jobs() {
		if strings.HasPrefix(job.Text, ref) {
			if found != nil {
				return nil, &JobError{Spec: spec, Msg: "ambiguous job spec"}
			}
			found = job
		}
	}
	if found == nil {
		return nil, &JobError{Spec: spec, Msg: "no such job"}
	}
	return found, nil
}

// marker is + for the current job, - for the previous, space otherwise.
func (m *JobManager) marker(id int) string {
	switch id {
	case m.current:
		return "+"
	case m.previous:
		return "-"
	default:
		return " "
	}
}

// Format renders one job the way the jobs builtin lists it.
func (m *JobManager) Format(job *Job) string {
	return fmt.Sprintf("[%d]%s  %-12s  %s", job.ID, m.marker(job.ID), job.State, job.Text)
}

// Reap polls every job, reports finished background jobs to w and
// removes everything Done. Called before each prompt.
func (m *JobManager) Reap(w io.Writer) {
	for _, job := range m.Jobs() {
		if job.Poll() != JobDone {
			continue
		}
		job.closeStreams()
		if job.Background && w != nil {
			fmt.Fprintf(w, "[%d]%s  %-12s  %s\n", job.ID, m.marker(job.ID), "Done", job.Text)
		}
		m.Remove(job.ID)
	}
}

// WaitAll blocks until every active job reaches Done, reaping as it
// goes. Returns the exit status of the last job waited on.
func (m *JobManager) WaitAll() int {
	code := 0
	for _, job := range m.Jobs() {
		code = job.Wait()
		job.closeStreams()
		m.Remove(job.ID)
	}
	return code
}
