package dataset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/psidex/bmmap/internal/graph"
	"github.com/psidex/bmmap/internal/lib"
)

// ContactsSuffix names the per-profile files of a crawl dump, "<userId>.contacts.json".
const ContactsSuffix = ".contacts.json"

// IngestStats describes what Ingest saw and dropped.
type IngestStats struct {
	Profiles int
	UserHit  int
	UserMiss int
	EdgeHit  int
	EdgeMiss int
	// SelfEdges counts profiles that list themselves as a contact.
	SelfEdges int
	// PrunedEdges were dropped because an end never appeared as a contact.
	PrunedEdges int
	PrunedIDs   []int
	// ContactsPerProfile maps a contact list length to the number of profiles of
	// that length.
	ContactsPerProfile map[int]int
}

// Ingest walks dir for contacts files and merges them into one dataset.
//
// Each file is the JSON list of contacts of the profile named by the file. A
// contact becomes a user the first time it is seen. The profile-contact pair
// becomes an edge unless the pair is already known in either direction. Edges
// to users that never appear in any contact list are pruned. Users are sorted
// by id and edges by A then B.
func Ingest(logger *slog.Logger, dir string) (*File, IngestStats, error) {
	if logger == nil {
		logger = lib.DiscardLogger()
	}

	names, err := contactFiles(dir)
	if err != nil {
		return nil, IngestStats{}, err
	}
	if len(names) == 0 {
		return nil, IngestStats{}, fmt.Errorf("no %s files under %s", ContactsSuffix, dir)
	}

	stats := IngestStats{ContactsPerProfile: make(map[int]int)}
	users := make(map[int]graph.User)
	edges := make(map[graph.Edge]struct{})

	for i, name := range names {
		if i%100 == 0 {
			logger.Debug("processing profile", "index", i, "total", len(names))
		}

		owner, contacts, err := readContacts(name)
		if err != nil {
			return nil, IngestStats{}, err
		}
		stats.Profiles++
		stats.ContactsPerProfile[len(contacts)]++

		for _, contact := range contacts {
			if _, ok := users[contact.ID]; ok {
				stats.UserHit++
			} else {
				users[contact.ID] = contact
				stats.UserMiss++
			}

			forward := graph.Edge{A: owner, B: contact.ID}
			backward := graph.Edge{A: contact.ID, B: owner}
			_, hasForward := edges[forward]
			_, hasBackward := edges[backward]
			if hasForward || hasBackward {
				stats.EdgeHit++
				continue
			}

			edges[forward] = struct{}{}
			stats.EdgeMiss++
			if owner == contact.ID {
				stats.SelfEdges++
				logger.Warn("user maps to itself", "user", users[owner].Name, "userId", owner)
			}
		}
	}

	pruned := lib.NewSet[int]()
	for e := range edges {
		_, hasA := users[e.A]
		_, hasB := users[e.B]
		if hasA && hasB {
			continue
		}
		stats.PrunedEdges++
		if !hasA {
			pruned.Add(e.A)
		}
		if !hasB {
			pruned.Add(e.B)
		}
		delete(edges, e)
	}
	stats.PrunedIDs = pruned.AsSlice()
	sort.Ints(stats.PrunedIDs)

	out := &File{
		Users: make([]graph.User, 0, len(users)),
		Edges: make([]graph.Edge, 0, len(edges)),
	}
	for _, u := range users {
		out.Users = append(out.Users, u)
	}
	for e := range edges {
		out.Edges = append(out.Edges, e)
	}
	sort.Slice(out.Users, func(i, j int) bool { return out.Users[i].ID < out.Users[j].ID })
	sort.Slice(out.Edges, func(i, j int) bool {
		if out.Edges[i].A != out.Edges[j].A {
			return out.Edges[i].A < out.Edges[j].A
		}
		return out.Edges[i].B < out.Edges[j].B
	})

	logger.Info("ingest done",
		"users", len(out.Users),
		"edges", len(out.Edges),
		"userHit", stats.UserHit, "userMiss", stats.UserMiss,
		"edgeHit", stats.EdgeHit, "edgeMiss", stats.EdgeMiss,
		"prunedEdges", stats.PrunedEdges, "prunedIds", stats.PrunedIDs,
	)

	return out, stats, nil
}

// contactFiles lists the contacts files exactly one directory below dir, the
// layout a crawl dump has. Files at the top level or deeper are ignored.
func contactFiles(dir string) ([]string, error) {
	names, err := filepath.Glob(filepath.Join(dir, "*", "*"+ContactsSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// OwnerID parses the profile id out of a contacts file name such as
// "42.contacts.json".
func OwnerID(name string) (int, error) {
	base := filepath.Base(name)
	id, err := strconv.Atoi(strings.TrimSuffix(base, ContactsSuffix))
	if err != nil {
		return 0, fmt.Errorf("contacts file %s: %w", base, err)
	}
	return id, nil
}

func readContacts(name string) (int, []graph.User, error) {
	owner, err := OwnerID(name)
	if err != nil {
		return 0, nil, err
	}

	contents, err := os.ReadFile(name)
	if err != nil {
		return 0, nil, err
	}

	var contacts []graph.User
	if err := json.Unmarshal(contents, &contacts); err != nil {
		return 0, nil, fmt.Errorf("contacts file %s: %w", name, err)
	}

	return owner, contacts, nil
}
