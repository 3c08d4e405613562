package usecase

// Operation documents for the content backend. One named operation per
// logical entity fetch; the seo fragment is shared by everything that
// carries a Yoast-style record.

const seoFragment = `
fragment SEOFields on SEO {
  title
  metaDesc
  canonical
  metaKeywords
  metaRobotsNoindex
  metaRobotsNofollow
  opengraphTitle
  opengraphDescription
  opengraphImage { url alt width height }
  twitterTitle
  twitterDescription
  twitterImage { url alt width height }
  schema { raw }
  fullHead
}`

const queryArticleBySlug = `
query ArticleBySlug($slug: ID!) {
  article(slug: $slug) {
    slug
    title
    excerpt
    content
    date
    modified
    author { name }
    categories { name }
    featuredImage { url alt width height }
    seo { ...SEOFields }
  }
}` + seoFragment

const queryArticles = `
query Articles($limit: Int!) {
  articles(limit: $limit) {
    nodes {
      slug
      title
      excerpt
      date
      featuredImage { url alt width height }
    }
  }
}`

const queryPageBySlug = `
query PageBySlug($slug: ID!) {
  page(slug: $slug) {
    slug
    title
    content
    modified
    seo { ...SEOFields }
  }
}` + seoFragment

const queryMenu = `
query Menu {
  menu {
    title
    description
    modified
    sections {
      name
      description
      items { name description price }
    }
    seo { ...SEOFields }
  }
}` + seoFragment

const queryFAQ = `
query FAQ {
  faq {
    title
    items { question answer }
    seo { ...SEOFields }
  }
}` + seoFragment

const queryPromotions = `
query Promotions {
  promotions {
    nodes {
      title
      description
      couponCode
      image { url alt width height }
      startsAt
      endsAt
    }
  }
}`

const querySitemap = `
query Sitemap {
  sitemap {
    articles { slug modified }
    pages { slug modified }
  }
}`
