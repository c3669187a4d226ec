// Package seed provides database seeding utilities for development and testing.
// All writes go through the services so counters and timestamps match what
// the API would produce.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DefaultPassword satisfies the registration password rules.
const DefaultPassword = "Inkwell!2024"

//go:embed tags.yml
var tagFixture []byte

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// MaxComments caps comments per published post, replies included.
	MaxComments int
	// ReplyChance is the percentage of comments that answer an earlier one.
	ReplyChance int
	// MaxLikes caps likes per published post.
	MaxLikes    int
	ShouldClean bool
	// Seed fixes the fake data; 0 picks a random seed.
	Seed     int64
	Password string
}

// DefaultOptions is a small data set suited to local development.
func DefaultOptions() Options {
	return Options{
		NumUsers:    10,
		NumPosts:    40,
		MaxComments: 5,
		ReplyChance: 30,
		MaxLikes:    8,
		Password:    DefaultPassword,
	}
}

// Result counts what a run created.
type Result struct {
	Users    int
	Tags     int
	Posts    int
	Comments int
	Likes    int
}

type tagSpec struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type tagFile struct {
	Tags []tagSpec `yaml:"tags"`
}

// LoadTags parses a tag fixture document.
func LoadTags(raw []byte) ([]tagSpec, error) {
	var f tagFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse tag fixture: %w", err)
	}
	return f.Tags, nil
}

// Seeder writes fake data through the service layer.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory

	tagRepo    repository.TagRepository
	auth       *service.AuthService
	posts      *service.PostService
	comments   *service.CommentService
	engagement *service.EngagementService
	tags       *service.TagService
}

// NewSeeder wires the services onto db. No events are published while seeding.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	postRepo := repository.NewPostRepository(db)
	tagRepo := repository.NewTagRepository(db)
	return &Seeder{
		db:         db,
		opts:       opts,
		factory:    NewFactory(opts.Seed, opts.Password),
		tagRepo:    tagRepo,
		auth:       service.NewAuthService(repository.NewUserRepository(db), 0),
		posts:      service.NewPostService(postRepo, nil),
		comments:   service.NewCommentService(repository.NewCommentRepository(db), postRepo, nil),
		engagement: service.NewEngagementService(repository.NewEngagementRepository(db), postRepo),
		tags:       service.NewTagService(tagRepo, postRepo, nil),
	}
}

// Seed populates the database with test data
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	return NewSeeder(db, opts).Run(ctx)
}

// Run creates users, tags, posts, comments and likes in that order.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	log := middleware.Logger
	log.InfoContext(ctx, "starting database seeding",
		slog.Int("users", s.opts.NumUsers), slog.Int("posts", s.opts.NumPosts))

	if s.opts.ShouldClean {
		if err := s.clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	res := &Result{}

	users, err := s.createUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	res.Users = len(users)
	if len(users) == 0 {
		return res, nil
	}

	tagIDs, err := s.createTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create tags: %w", err)
	}
	res.Tags = len(tagIDs)

	posts, err := s.createPosts(ctx, users, tagIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	res.Posts = len(posts)

	for _, post := range posts {
		if !post.IsPublished() {
			continue
		}
		n, err := s.createComments(ctx, post, users)
		if err != nil {
			return nil, fmt.Errorf("failed to create comments: %w", err)
		}
		res.Comments += n

		n, err = s.createLikes(ctx, post, users)
		if err != nil {
			return nil, fmt.Errorf("failed to create likes: %w", err)
		}
		res.Likes += n
	}

	log.InfoContext(ctx, "database seeding completed",
		slog.Int("users", res.Users), slog.Int("tags", res.Tags), slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments), slog.Int("likes", res.Likes))
	return res, nil
}

// clear deletes every row, children first.
func (s *Seeder) clear(ctx context.Context) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	all := database.PersistentModels()
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) createUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 1; i <= s.opts.NumUsers; i++ {
		user, err := s.auth.Register(ctx, s.factory.User(i))
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
				middleware.Logger.WarnContext(ctx, "skipping existing seed user", slog.Int("n", i))
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// createTags creates the fixture tags, reusing any that already exist.
func (s *Seeder) createTags(ctx context.Context) ([]uint, error) {
	specs, err := LoadTags(tagFixture)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(specs))
	for _, spec := range specs {
		existing, err := s.tagRepo.GetByName(ctx, spec.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			ids = append(ids, existing.ID)
			continue
		}
		tag, err := s.tags.CreateTag(ctx, service.CreateTagInput{Name: spec.Name, Color: spec.Color})
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", spec.Name, err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

func (s *Seeder) createPosts(ctx context.Context, users []*models.User, tagIDs []uint) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[s.factory.Intn(len(users))]
		post, err := s.posts.CreatePost(ctx, s.factory.Post(author.ID, s.factory.PickTags(tagIDs, 3)))
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// createComments adds top-level comments and replies to one post.
func (s *Seeder) createComments(ctx context.Context, post *models.Post, users []*models.User) (int, error) {
	if s.opts.MaxComments <= 0 {
		return 0, nil
	}
	var created []uint
	top := s.factory.Intn(s.opts.MaxComments + 1)
	for i := 0; i < top; i++ {
		in := service.CreateCommentInput{
			UserID:  users[s.factory.Intn(len(users))].ID,
			PostID:  post.ID,
			Content: s.factory.Comment(),
		}
		if len(created) > 0 && s.factory.Chance(s.opts.ReplyChance) {
			parent := created[s.factory.Intn(len(created))]
			in.ParentID = &parent
		}
		comment, err := s.comments.CreateComment(ctx, in)
		if err != nil {
			return len(created), err
		}
		created = append(created, comment.ID)
	}
	return len(created), nil
}

// createLikes likes a post from distinct random users.
func (s *Seeder) createLikes(ctx context.Context, post *models.Post, users []*models.User) (int, error) {
	if s.opts.MaxLikes <= 0 {
		return 0, nil
	}
	want := s.factory.Intn(s.opts.MaxLikes + 1)
	if want > len(users) {
		want = len(users)
	}
	liked := 0
	for _, i := range s.factory.Perm(len(users))[:want] {
		if _, err := s.engagement.Like(ctx, users[i].ID, post.ID); err != nil {
			return liked, err
		}
		liked++
	}
	return liked, nil
}
