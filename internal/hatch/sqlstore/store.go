package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/daniacca/hatchery/internal/hatch"
)

var (
	_ hatch.CollectionStore = (*Store)(nil)
	_ hatch.SnapshotSource  = (*Store)(nil)
)

// Store persists dex and progression entries in SQLite. Each write runs in
// its own transaction, so a read-modify-write never interleaves with another
// writer.
type Store struct {
	db        *sql.DB
	catalog   *hatch.Catalog
	announcer hatch.Announcer
	logger    hatch.Logger
}

// Open opens (or creates) the database at path and seeds an empty entry for
// every species in catalog that has none yet.
func Open(ctx context.Context, path string, catalog *hatch.Catalog) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, catalog: catalog, logger: hatch.NewNoOpLogger()}
	if err := s.Seed(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SetLogger(logger hatch.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetNotificationManager routes discovery events to mgr.
func (s *Store) SetNotificationManager(mgr *hatch.NotificationManager, targets ...string) {
	s.announcer.Set(mgr, targets...)
}

// Seed inserts empty entries for catalog species that are missing. Existing
// rows are left untouched.
func (s *Store) Seed(ctx context.Context) error {
	if s.catalog == nil {
		return nil
	}
	return runTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, sp := range s.catalog.All() {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO dex_entries (species_id) VALUES (?)`, int(sp.ID)); err != nil {
				return fmt.Errorf("seed dex entry %d: %w", sp.ID, err)
			}
		}
		for _, root := range s.catalog.Roots() {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO progression_entries (species_id) VALUES (?)`, int(root)); err != nil {
				return fmt.Errorf("seed progression entry %d: %w", root, err)
			}
		}
		return nil
	})
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getDex(ctx context.Context, q queryer, id hatch.SpeciesID) (hatch.DexEntry, error) {
	var (
		entry        hatch.DexEntry
		seen, caught int64
		nature       int64
		ivs          string
	)
	err := q.QueryRowContext(ctx, `
		SELECT seen_attr, caught_attr, nature_attr, seen_count, caught_count, hatched_count, ivs
		FROM dex_entries WHERE species_id = ?`, int(id)).
		Scan(&seen, &caught, &nature, &entry.SeenCount, &entry.CaughtCount, &entry.HatchedCount, &ivs)
	if errors.Is(err, sql.ErrNoRows) {
		return hatch.DexEntry{}, fmt.Errorf("%w: dex species %d", hatch.ErrEntryNotFound, id)
	}
	if err != nil {
		return hatch.DexEntry{}, fmt.Errorf("read dex species %d: %w", id, err)
	}
	entry.SeenAttr = hatch.DexAttr(seen)
	entry.CaughtAttr = hatch.DexAttr(caught)
	entry.NatureAttr = uint32(nature)
	if err := json.Unmarshal([]byte(ivs), &entry.IVs); err != nil {
		return hatch.DexEntry{}, fmt.Errorf("decode ivs for species %d: %w", id, err)
	}
	return entry, nil
}

func putDex(ctx context.Context, e execer, id hatch.SpeciesID, entry hatch.DexEntry) error {
	ivs, err := json.Marshal(entry.IVs)
	if err != nil {
		return fmt.Errorf("encode ivs for species %d: %w", id, err)
	}
	_, err = e.ExecContext(ctx, `
		INSERT INTO dex_entries (species_id, seen_attr, caught_attr, nature_attr, seen_count, caught_count, hatched_count, ivs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(species_id) DO UPDATE SET
			seen_attr = excluded.seen_attr,
			caught_attr = excluded.caught_attr,
			nature_attr = excluded.nature_attr,
			seen_count = excluded.seen_count,
			caught_count = excluded.caught_count,
			hatched_count = excluded.hatched_count,
			ivs = excluded.ivs`,
		int(id), int64(entry.SeenAttr), int64(entry.CaughtAttr), int64(entry.NatureAttr),
		entry.SeenCount, entry.CaughtCount, entry.HatchedCount, string(ivs))
	if err != nil {
		return fmt.Errorf("write dex species %d: %w", id, err)
	}
	return nil
}

func getProgression(ctx context.Context, q queryer, rootID hatch.SpeciesID) (hatch.ProgressionEntry, error) {
	var (
		entry                 hatch.ProgressionEntry
		moveset               string
		eggMoves, ability, pa int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT moveset, egg_moves, candy_count, friendship, ability_attr, passive_attr, value_reduction, classic_win_count
		FROM progression_entries WHERE species_id = ?`, int(rootID)).
		Scan(&moveset, &eggMoves, &entry.CandyCount, &entry.Friendship, &ability, &pa, &entry.ValueReduction, &entry.ClassicWinCount)
	if errors.Is(err, sql.ErrNoRows) {
		return hatch.ProgressionEntry{}, fmt.Errorf("%w: progression species %d", hatch.ErrEntryNotFound, rootID)
	}
	if err != nil {
		return hatch.ProgressionEntry{}, fmt.Errorf("read progression species %d: %w", rootID, err)
	}
	entry.EggMoves = uint8(eggMoves)
	entry.AbilityAttr = uint8(ability)
	entry.PassiveAttr = uint8(pa)
	if err := json.Unmarshal([]byte(moveset), &entry.Moveset); err != nil {
		return hatch.ProgressionEntry{}, fmt.Errorf("decode moveset for species %d: %w", rootID, err)
	}
	if len(entry.Moveset) == 0 {
		entry.Moveset = nil
	}
	return entry, nil
}

func putProgression(ctx context.Context, e execer, rootID hatch.SpeciesID, entry hatch.ProgressionEntry) error {
	moveset := entry.Moveset
	if moveset == nil {
		moveset = []int{}
	}
	data, err := json.Marshal(moveset)
	if err != nil {
		return fmt.Errorf("encode moveset for species %d: %w", rootID, err)
	}
	_, err = e.ExecContext(ctx, `
		INSERT INTO progression_entries (species_id, moveset, egg_moves, candy_count, friendship, ability_attr, passive_attr, value_reduction, classic_win_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(species_id) DO UPDATE SET
			moveset = excluded.moveset,
			egg_moves = excluded.egg_moves,
			candy_count = excluded.candy_count,
			friendship = excluded.friendship,
			ability_attr = excluded.ability_attr,
			passive_attr = excluded.passive_attr,
			value_reduction = excluded.value_reduction,
			classic_win_count = excluded.classic_win_count`,
		int(rootID), string(data), int(entry.EggMoves), entry.CandyCount, entry.Friendship,
		int(entry.AbilityAttr), int(entry.PassiveAttr), entry.ValueReduction, entry.ClassicWinCount)
	if err != nil {
		return fmt.Errorf("write progression species %d: %w", rootID, err)
	}
	return nil
}

func (s *Store) ReadDexEntry(id hatch.SpeciesID) (hatch.DexEntry, error) {
	return getDex(context.Background(), s.db, id)
}

func (s *Store) ReadProgressionEntry(rootID hatch.SpeciesID) (hatch.ProgressionEntry, error) {
	return getProgression(context.Background(), s.db, rootID)
}

// SetDexEntry replaces the dex entry for id.
func (s *Store) SetDexEntry(ctx context.Context, id hatch.SpeciesID, entry hatch.DexEntry) error {
	return putDex(ctx, s.db, id, entry)
}

// SetProgressionEntry replaces the progression entry for rootID.
func (s *Store) SetProgressionEntry(ctx context.Context, rootID hatch.SpeciesID, entry hatch.ProgressionEntry) error {
	return putProgression(ctx, s.db, rootID, entry)
}

func (s *Store) MarkCaught(ctx context.Context, c *hatch.Creature, incrementSeen, incrementCaught, notify bool) error {
	if c == nil || c.Species == nil {
		return fmt.Errorf("%w: creature has no species", hatch.ErrEntryNotFound)
	}
	sp := c.Species
	root := sp.RootSpeciesID()

	var newCatch bool
	err := runTx(ctx, s.db, func(tx *sql.Tx) error {
		dex, err := getDex(ctx, tx, sp.ID)
		if err != nil && !errors.Is(err, hatch.ErrEntryNotFound) {
			return err
		}
		prog, err := getProgression(ctx, tx, root)
		if err != nil && !errors.Is(err, hatch.ErrEntryNotFound) {
			return err
		}

		newCatch = hatch.ApplyCatch(&dex, &prog, c, incrementSeen, incrementCaught)
		if err := putDex(ctx, tx, sp.ID, dex); err != nil {
			return err
		}
		return putProgression(ctx, tx, root, prog)
	})
	if err != nil {
		return err
	}

	if newCatch {
		s.logger.Debugf("Species caught for the first time: species=%d", sp.ID)
		if notify {
			s.announcer.Announce(hatch.NewCatchEvent(ctx, c))
		}
	}
	return nil
}

func (s *Store) UpdateIndividualValues(ctx context.Context, id hatch.SpeciesID, ivs hatch.IVs) error {
	data, err := json.Marshal(ivs)
	if err != nil {
		return fmt.Errorf("encode ivs for species %d: %w", id, err)
	}
	return runTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE dex_entries SET ivs = ? WHERE species_id = ?`, string(data), int(id))
		if err != nil {
			return fmt.Errorf("write ivs for species %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: dex species %d", hatch.ErrEntryNotFound, id)
		}
		return nil
	})
}

func (s *Store) TryUnlockEggMove(ctx context.Context, sp *hatch.Species, slot int, notify bool) (bool, error) {
	root := sp.RootSpeciesID()

	var unlocked bool
	err := runTx(ctx, s.db, func(tx *sql.Tx) error {
		prog, err := getProgression(ctx, tx, root)
		if err != nil {
			return err
		}
		unlocked, err = hatch.ApplyEggMoveUnlock(&prog, sp, slot)
		if err != nil || !unlocked {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE progression_entries SET egg_moves = ? WHERE species_id = ?`, int(prog.EggMoves), int(root))
		if err != nil {
			return fmt.Errorf("write egg moves for species %d: %w", root, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if unlocked && notify {
		s.announcer.Announce(hatch.NewEggMoveEvent(ctx, sp, slot))
	}
	return unlocked, nil
}

// ExportSnapshot reads every entry into a snapshot ordered by species.
func (s *Store) ExportSnapshot(ctx context.Context) (hatch.Snapshot, error) {
	snap := hatch.Snapshot{TakenAt: time.Now().Unix()}
	if s.catalog != nil {
		snap.Catalog = s.catalog.Name
	}

	dexIDs, err := s.ids(ctx, `SELECT species_id FROM dex_entries`)
	if err != nil {
		return hatch.Snapshot{}, err
	}
	for _, id := range dexIDs {
		entry, err := getDex(ctx, s.db, id)
		if err != nil {
			return hatch.Snapshot{}, err
		}
		snap.Dex = append(snap.Dex, hatch.DexRecord{SpeciesID: id, DexEntry: entry})
	}

	progIDs, err := s.ids(ctx, `SELECT species_id FROM progression_entries`)
	if err != nil {
		return hatch.Snapshot{}, err
	}
	for _, id := range progIDs {
		entry, err := getProgression(ctx, s.db, id)
		if err != nil {
			return hatch.Snapshot{}, err
		}
		snap.Progression = append(snap.Progression, hatch.ProgressionRecord{SpeciesID: id, ProgressionEntry: entry})
	}
	return snap, nil
}

// ImportSnapshot validates snapshot against the catalog and writes every
// entry in a single transaction.
func (s *Store) ImportSnapshot(ctx context.Context, snapshot hatch.Snapshot) error {
	if err := hatch.ValidateSnapshot(snapshot, s.catalog); err != nil {
		return err
	}
	err := runTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, rec := range snapshot.Dex {
			if err := putDex(ctx, tx, rec.SpeciesID, rec.DexEntry); err != nil {
				return err
			}
		}
		for _, rec := range snapshot.Progression {
			if err := putProgression(ctx, tx, rec.SpeciesID, rec.ProgressionEntry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Infof("Snapshot imported: dex=%d progression=%d", len(snapshot.Dex), len(snapshot.Progression))
	return nil
}

func (s *Store) ids(ctx context.Context, query string) ([]hatch.SpeciesID, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list species: %w", err)
	}
	defer rows.Close()

	var ids []hatch.SpeciesID
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan species: %w", err)
		}
		ids = append(ids, hatch.SpeciesID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
