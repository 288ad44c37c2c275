package seed

import (
	"fmt"
	"log"

	"agora/internal/models"

	"gorm.io/gorm"
)

// Options controls how much data the seeder generates.
type Options struct {
	NumUsers       int
	NumDiscussions int
}

// Seeder populates the database with demo forum content.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// defaultCategories is the fixed category set created on every run.
var defaultCategories = []models.Category{
	{Name: "General", Code: "general", Description: "Anything goes", DisplayOrder: 1},
	{Name: "Announcements", Code: "announcements", Description: "News from the team", DisplayOrder: 2},
	{Name: "Help", Code: "help", Description: "Questions and answers", DisplayOrder: 3},
	{Name: "Feedback", Code: "feedback", Description: "Ideas and feature requests", DisplayOrder: 4},
	{Name: "Off-topic", Code: "off-topic", Description: "Everything else", DisplayOrder: 5},
}

// ClearAll removes all seeded data. Deletion order respects foreign keys.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []any{
		&models.Vote{},
		&models.VotingQuestion{},
		&models.CommentLike{},
		&models.DiscussionLike{},
		&models.Comment{},
		&models.Discussion{},
		&models.Category{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return fmt.Errorf("clear %T: %w", table, err)
		}
	}
	return nil
}

// Run generates categories, users, discussions, comments, likes and polls.
func (s *Seeder) Run(opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 25
	}
	if opts.NumDiscussions <= 0 {
		opts.NumDiscussions = 60
	}

	categories, err := s.seedCategories()
	if err != nil {
		return err
	}
	log.Printf("Created %d categories", len(categories))

	users, err := s.seedUsers(opts.NumUsers)
	if err != nil {
		return err
	}
	log.Printf("Created %d users", len(users))

	discussions, err := s.seedDiscussions(users, categories, opts.NumDiscussions)
	if err != nil {
		return err
	}
	log.Printf("Created %d discussions", len(discussions))

	if err := s.seedEngagement(discussions, users); err != nil {
		return err
	}
	log.Println("Seeded comments, likes and polls")

	return nil
}

func (s *Seeder) seedCategories() ([]*models.Category, error) {
	categories := make([]*models.Category, 0, len(defaultCategories))
	for _, c := range defaultCategories {
		category := c
		if err := s.db.Create(&category).Error; err != nil {
			return nil, fmt.Errorf("create category %s: %w", c.Code, err)
		}
		categories = append(categories, &category)
	}
	return categories, nil
}

func (s *Seeder) seedUsers(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		// Roughly one admin per ten users, with at least one.
		admin := i == 0 || s.factory.rng.Intn(10) == 0
		user, err := s.factory.CreateUser(admin)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedDiscussions(users []*models.User, categories []*models.Category, count int) ([]*models.Discussion, error) {
	discussions := make([]*models.Discussion, 0, count)
	for i := 0; i < count; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		category := categories[s.factory.rng.Intn(len(categories))]

		state := models.DiscussionNormal
		switch s.factory.rng.Intn(20) {
		case 0:
			state = models.DiscussionTop
		case 1:
			state = models.DiscussionHidden
		case 2:
			state = models.DiscussionPrivate
		}

		discussion := s.factory.BuildDiscussion(author, category, state)
		if err := s.db.Create(discussion).Error; err != nil {
			return nil, fmt.Errorf("create discussion: %w", err)
		}
		discussions = append(discussions, discussion)
	}
	return discussions, nil
}

func (s *Seeder) seedEngagement(discussions []*models.Discussion, users []*models.User) error {
	rng := s.factory.rng
	for _, discussion := range discussions {
		// Comment threads: a handful of roots, each with up to a few replies.
		rootCount := rng.Intn(5)
		for i := 0; i < rootCount; i++ {
			commenter := users[rng.Intn(len(users))]
			root, err := s.factory.CreateComment(discussion, commenter, nil)
			if err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
			for j := 0; j < rng.Intn(3); j++ {
				replier := users[rng.Intn(len(users))]
				if _, err := s.factory.CreateComment(discussion, replier, root); err != nil {
					return fmt.Errorf("create reply: %w", err)
				}
			}
			for k := 0; k < rng.Intn(4); k++ {
				if err := s.factory.LikeComment(root, users[rng.Intn(len(users))]); err != nil {
					return fmt.Errorf("like comment: %w", err)
				}
			}
		}

		for i := 0; i < rng.Intn(6); i++ {
			if err := s.factory.LikeDiscussion(discussion, users[rng.Intn(len(users))]); err != nil {
				return fmt.Errorf("like discussion: %w", err)
			}
		}

		// Roughly a quarter of discussions carry a poll.
		if rng.Intn(4) == 0 {
			voterCount := rng.Intn(len(users)) + 1
			voters := make([]*models.User, 0, voterCount)
			for _, idx := range rng.Perm(len(users))[:voterCount] {
				voters = append(voters, users[idx])
			}
			if err := s.factory.CreatePoll(discussion, rng.Intn(3)+1, voters); err != nil {
				return fmt.Errorf("create poll: %w", err)
			}
		}
	}
	return nil
}
