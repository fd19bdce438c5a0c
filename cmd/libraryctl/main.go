// cmd/libraryctl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"librarium/internal/catalog"
	"librarium/internal/clients"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:   "libraryctl",
		Short: "Admin CLI for the librarium service",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the librarium API")

	root.AddCommand(
		booksCmd(),
		borrowCmd(),
		returnCmd(),
		overdueCmd(),
		fineCmd(),
		sweepCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func client() *clients.LibraryClient {
	return clients.NewLibraryClient(serverURL)
}

func booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage the catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all books",
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := client().ListBooks(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range books {
				fmt.Printf("%s  %-40s  isbn=%s  available=%d/%d\n",
					b.ID, b.Title, b.ISBN, b.AvailableCopies, b.TotalCopies)
			}
			return nil
		},
	}

	var input catalog.BookInput
	var authorID, categoryID string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if input.AuthorID, err = uuid.Parse(authorID); err != nil {
				return fmt.Errorf("invalid --author: %w", err)
			}
			if input.CategoryID, err = uuid.Parse(categoryID); err != nil {
				return fmt.Errorf("invalid --category: %w", err)
			}

			book, err := client().AddBook(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Printf("Added %q with %d copies (id %s)\n", book.Title, book.TotalCopies, book.ID)
			return nil
		},
	}
	add.Flags().StringVar(&input.Title, "title", "", "book title")
	add.Flags().StringVar(&input.ISBN, "isbn", "", "ISBN")
	add.Flags().StringVar(&authorID, "author", "", "author id")
	add.Flags().StringVar(&categoryID, "category", "", "category id")
	add.Flags().IntVar(&input.PublishedYear, "year", 0, "published year")
	add.Flags().IntVar(&input.TotalCopies, "copies", 1, "number of copies")
	add.MarkFlagRequired("title")
	add.MarkFlagRequired("isbn")
	add.MarkFlagRequired("author")
	add.MarkFlagRequired("category")

	cmd.AddCommand(list, add)
	return cmd
}

func borrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <book-id> <user-id>",
		Short: "Borrow a book for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := client().BorrowBook(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Loan %s created, due %s\n", loan.ID, loan.DueDate.Format("2006-01-02"))
			return nil
		},
	}
}

func returnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <loan-id>",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := client().ReturnBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Loan %s returned, fine %d\n", loan.ID, loan.FineAmount)
			return nil
		},
	}
}

func overdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List overdue loans",
		RunE: func(cmd *cobra.Command, args []string) error {
			loans, err := client().OverdueLoans(cmd.Context())
			if err != nil {
				return err
			}
			for _, l := range loans {
				fmt.Printf("%s  user=%s  book=%s  due=%s\n",
					l.ID, l.UserID, l.BookID, l.DueDate.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func fineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fine <user-id>",
		Short: "Show a user's outstanding fine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fine, err := client().OutstandingFine(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(fine)
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the overdue sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().RunSweep(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Sweep completed")
			return nil
		},
	}
}
